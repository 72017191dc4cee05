package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"lokalebooking/internal/model"
	"lokalebooking/internal/slots"
)

func TestWriteWeek(t *testing.T) {
	room := "Lokale 308 (6 personer)"
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	ix := slots.BuildIndex([]model.Booking{
		{Room: room, Date: "2025-03-10", StartMinutes: 600, Name: "Ida"},
		{Room: room, Date: "2025-03-12", StartMinutes: 480, Name: "Jonas"},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteWeek(&buf, room, monday, ix))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheet := "10.–14. mar"
	require.Contains(t, f.GetSheetList(), sheet)

	get := func(cell string) string {
		v, err := f.GetCellValue(sheet, cell)
		require.NoError(t, err)
		return v
	}

	// Header: room name, then the five day labels.
	assert.Equal(t, room, get("A1"))
	assert.Equal(t, "man 10. mar", get("B1"))
	assert.Equal(t, "fre 14. mar", get("F1"))

	// Slot labels down the first column.
	assert.Equal(t, "08:00-09:00", get("A2"))
	assert.Equal(t, "16:00-17:00", get("A10"))

	// Booked cells carry the booker's name; free cells stay empty.
	assert.Equal(t, "Ida", get("B4"))   // Monday 10:00
	assert.Equal(t, "Jonas", get("D2")) // Wednesday 08:00
	assert.Empty(t, get("C4"))
}
