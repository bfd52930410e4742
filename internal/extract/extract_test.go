package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupported(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{filename: "notes.txt", want: true},
		{filename: "notes.md", want: true},
		{filename: "paper.pdf", want: true},
		{filename: "NOTES.TXT", want: true},
		{filename: "archive.zip", want: false},
		{filename: "image.png", want: false},
		{filename: "noextension", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, Supported(tt.filename))
		})
	}
}

func TestText_PlainText(t *testing.T) {
	out, err := Text("notes.txt", []byte("buy milk\nread book"))
	require.NoError(t, err)
	assert.Equal(t, "buy milk\nread book", out)
}

func TestText_Markdown(t *testing.T) {
	out, err := Text("notes.md", []byte("# Heading\n\nsome content"))
	require.NoError(t, err)
	assert.Equal(t, "# Heading\n\nsome content", out)
}

func TestText_InvalidUTF8(t *testing.T) {
	_, err := Text("notes.txt", []byte{0xff, 0xfe, 0xfd})
	assert.ErrorContains(t, err, "UTF-8")
}

func TestText_UnsupportedType(t *testing.T) {
	_, err := Text("archive.zip", []byte("data"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestText_MalformedPDF(t *testing.T) {
	_, err := Text("paper.pdf", []byte("not a pdf at all"))
	assert.Error(t, err)
}
