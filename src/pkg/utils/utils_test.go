package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetMd5String(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", GetMd5String([]byte("")))
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", GetMd5String([]byte("abc")))
}

func TestMd5Hex(t *testing.T) {
	assert.Equal(t, GetMd5String([]byte("abc")), Md5Hex("abc"))
}
