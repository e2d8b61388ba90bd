package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("2abcKSUID", "bessie.jpg")

	prefix := time.Now().UTC().Format("2006/01/02")
	assert.True(t, strings.HasPrefix(key, prefix+"/"))
	assert.True(t, strings.HasSuffix(key, "2abcKSUID_bessie.jpg"))
	assert.Equal(t, 3, strings.Count(key, "/"))
}
