package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// inviteAlphabet leaves out 0, O, 1 and I so codes survive being read aloud
// on a job site.
const inviteAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const (
	inviteGroups    = 3
	inviteGroupSize = 4
)

// GenerateInviteCode returns a random project invite code such as
// "K7QM-3XRD-VN8P".
func GenerateInviteCode() (string, error) {
	buf := make([]byte, inviteGroups*inviteGroupSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	var sb strings.Builder
	for i, b := range buf {
		if i > 0 && i%inviteGroupSize == 0 {
			sb.WriteByte('-')
		}
		// 256 is a multiple of len(inviteAlphabet), so the modulo is unbiased
		sb.WriteByte(inviteAlphabet[int(b)%len(inviteAlphabet)])
	}
	return sb.String(), nil
}

// NormalizeInviteCode trims and upper-cases a code typed by a user.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
