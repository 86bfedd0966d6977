package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "guests.xlsx", want: FormatXLSX},
		{in: "GUESTS.CSV", want: FormatCSV},
		{in: "csv", want: FormatCSV},
		{in: "xlsx", want: FormatXLSX},
		{in: "guests.pdf", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFormat(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReadRows_CSV(t *testing.T) {
	in := "\xEF\xBB\xBF이름, 전화번호,비고\n김철수,010-1111-2222,VIP\n,,\n이영희,01033334444\n"

	rows, err := ReadRows(strings.NewReader(in), FormatCSV)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "김철수", rows[0]["이름"])
	assert.Equal(t, "010-1111-2222", rows[0]["전화번호"])
	assert.Equal(t, "VIP", rows[0]["비고"])
	assert.Equal(t, "", rows[1]["비고"])
}

func TestWriteRows_CSVHasBOM(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRows(&buf, FormatCSV, []string{"이름", "입장번호"}, [][]string{{"김철수", "1"}})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(buf.String(), "\xEF\xBB\xBF"))
	assert.Contains(t, buf.String(), "김철수,1")
}

func TestXLSXRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	header := []string{"곡명", "보컬", "기타"}
	err := WriteRows(&buf, FormatXLSX, header, [][]string{
		{"Song A", "A, B", "-"},
		{"Song B", "", "B, C"},
	})
	require.NoError(t, err)

	rows, err := ReadRows(bytes.NewReader(buf.Bytes()), FormatXLSX)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Song A", rows[0]["곡명"])
	assert.Equal(t, "A, B", rows[0]["보컬"])
	assert.Equal(t, "B, C", rows[1]["기타"])
}
