package wildberries

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractProductID(t *testing.T) {
	cases := []struct {
		input string
		id    int64
		ok    bool
	}{
		{"https://www.wildberries.ru/catalog/407325131/detail.aspx", 407325131, true},
		{"  https://wildberries.ru/catalog/12345/detail.aspx?targetUrl=GP  ", 12345, true},
		{"https://www.wildberries.ru/product?card=777", 777, true},
		{"407325131", 407325131, true},
		{" 42 ", 42, true},
		{"0", 0, false},
		{"", 0, false},
		{"https://www.wildberries.ru/brands/123abc", 0, false},
		{"https://www.wildberries.ru/catalog/0/detail.aspx", 0, false},
		{"abc", 0, false},
		{"99999999999999999999999", 0, false},
	}
	for _, tc := range cases {
		id, ok := ExtractProductID(tc.input)
		assert.Equal(t, tc.ok, ok, tc.input)
		assert.Equal(t, tc.id, id, tc.input)
	}
}

func TestExtractProductID_IdempotentOnOutput(t *testing.T) {
	inputs := []string{
		"https://www.wildberries.ru/catalog/407325131/detail.aspx",
		"https://www.wildberries.ru/product?card=777",
		"15",
	}
	for _, in := range inputs {
		id, ok := ExtractProductID(in)
		assert.True(t, ok)
		again, ok := ExtractProductID(strconv.FormatInt(id, 10))
		assert.True(t, ok)
		assert.Equal(t, id, again)
	}
}
