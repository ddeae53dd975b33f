package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSessionID(t *testing.T) {
	assert.NoError(t, ValidateSessionID(""))
	assert.NoError(t, ValidateSessionID("user_20240101_120000"))
	assert.NoError(t, ValidateSessionID("u-1"))
	assert.Error(t, ValidateSessionID("../etc"))
	assert.Error(t, ValidateSessionID("a b"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "report.pdf", SanitizeFilename("report.pdf"))
	assert.Equal(t, "passwd.txt", SanitizeFilename("../../etc/passwd.txt"))
	assert.Equal(t, "scan.png", SanitizeFilename(`C:\Users\me\scan.png`))
	assert.Equal(t, "ab.txt", SanitizeFilename("a\x00b.txt"))
	assert.Equal(t, "", SanitizeFilename(""))
}

func TestValidateLimit(t *testing.T) {
	assert.Equal(t, 10, ValidateLimit(0))
	assert.Equal(t, 5, ValidateLimit(5))
	assert.Equal(t, 100, ValidateLimit(1000))
}
