package game

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	// CodeChars omits 0, O, 1 and I so codes can be read aloud in a classroom.
	CodeChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength = 6

	StartingHearts = 3
	LadderTop      = 10
	MaxSpeedBonus  = 2

	DefaultTimePerQuestion = 20
	DefaultTTL             = 2 * time.Hour
)

// GenerateCode draws a join code from CodeChars.
func GenerateCode() (string, error) {
	code := make([]byte, CodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(CodeChars))))
		if err != nil {
			return "", fmt.Errorf("drawing code: %w", err)
		}
		code[i] = CodeChars[n.Int64()]
	}
	return string(code), nil
}

// ValidCode reports whether code could have come from GenerateCode.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := range len(code) {
		if strings.IndexByte(CodeChars, code[i]) < 0 {
			return false
		}
	}
	return true
}

// Duration marshals as whole seconds.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(time.Duration(d) / time.Second))
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var secs int64
	if err := json.Unmarshal(b, &secs); err != nil {
		return err
	}
	*d = Duration(time.Duration(secs) * time.Second)
	return nil
}
