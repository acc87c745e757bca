package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	identity "rentmeroom/internal/identity/models"
	"rentmeroom/internal/listing/models"
	id "rentmeroom/pkg/domain"
)

func TestWriteRooms(t *testing.T) {
	ward := 3
	ownerID := id.NewUserID()
	withOwner := &models.Room{
		ID:          id.NewRoomID(),
		OwnerID:     ownerID,
		Title:       "Sunny room",
		Rent:        12000,
		Address:     models.Address{Country: "Nepal", Province: "Gandaki", District: "Kaski", Municipality: "Pokhara", Ward: &ward},
		Location:    &models.GeoPoint{Lon: 83.98, Lat: 28.2},
		Contact:     "9800000000",
		Features:    []string{"wifi", "parking"},
		Description: "Near the lake",
		CreatedAt:   time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	full := withOwner.Full()
	full.Owner = &identity.PublicUser{ID: ownerID, Name: "Maya", Email: "maya@example.com"}

	orphan := (&models.Room{
		ID:          id.NewRoomID(),
		OwnerID:     id.NewUserID(),
		Title:       "Orphan room",
		Rent:        5000,
		AddressText: "Baneshwor, Kathmandu",
		Contact:     "9811111111",
		IsVerified:  true,
		CreatedAt:   time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC),
	}).Full()

	var buf bytes.Buffer
	require.NoError(t, WriteRooms(&buf, []models.OwnerRoom{full, orphan}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, roomHeader, rows[0])

	assert.Equal(t, "Sunny room", rows[1][1])
	assert.Equal(t, "12000", rows[1][2])
	assert.Equal(t, "Ward 3, Pokhara, Kaski, Gandaki, Nepal", rows[1][3])
	assert.Equal(t, "wifi, parking", rows[1][7])
	assert.Equal(t, "false", rows[1][8])
	assert.Equal(t, "Maya", rows[1][11])
	assert.Equal(t, "2026-02-01T10:00:00Z", rows[1][13])

	assert.Equal(t, "Baneshwor, Kathmandu", rows[2][3])
	assert.Equal(t, "", rows[2][4])
	assert.Equal(t, "true", rows[2][8])
}

func TestWriteRooms_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRooms(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
