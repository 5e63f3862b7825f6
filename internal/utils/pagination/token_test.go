package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeToken(t *testing.T) {
	c := Cursor{
		EntryDate: time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2023, 5, 15, 14, 30, 45, 123456789, time.UTC),
		ID:        "6f1c2a64-5d43-4b57-9d2a-1b7b7f1b2c3d",
	}

	token := EncodeToken(c)
	assert.NotEmpty(t, token, "Token should not be empty")

	decoded, err := DecodeToken(token)
	assert.NoError(t, err)
	assert.Equal(t, c, decoded)

	zero := Cursor{}
	decodedZero, err := DecodeToken(EncodeToken(zero))
	assert.NoError(t, err, "Decoding zero cursor should not return an error")
	assert.Equal(t, zero, decodedZero)
}

func TestDecodeTokenError(t *testing.T) {
	_, err := DecodeToken("this is not base64!")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "base64 decode")

	invalidToken := "MjAyMy0wNS0xNVQwMDowMDowMFo=" // "2023-05-15T00:00:00Z" without separators
	_, err = DecodeToken(invalidToken)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "split")

	invalidDateToken := "bm90YWRhdGV8MjAyMy0wNS0xNVQxNDozMDo0NS4xMjM0NTY3ODlafGFi" // "notadate|2023-05-15T14:30:45.123456789Z|ab"
	_, err = DecodeToken(invalidDateToken)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "entry date parse")
}

func TestCursorFollows(t *testing.T) {
	d := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	ts := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	c := Cursor{EntryDate: d, CreatedAt: ts, ID: "m"}

	assert.True(t, c.Follows(d.AddDate(0, 0, -1), ts.Add(time.Hour), "z"), "older date follows")
	assert.False(t, c.Follows(d.AddDate(0, 0, 1), ts, "a"), "newer date precedes")
	assert.True(t, c.Follows(d, ts.Add(-time.Second), "z"), "same date, earlier creation follows")
	assert.True(t, c.Follows(d, ts, "a"), "tie broken by id")
	assert.False(t, c.Follows(d, ts, "m"), "cursor row itself is excluded")
}
