package places

import (
	"testing"

	"github.com/parkops/shiftbot/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryResolveAndTitles(t *testing.T) {
	d := NewDirectory([]storage.Place{
		{ID: 1, ChatID: -430076961, Title: "Новая Рига"},
		{ID: 2, ChatID: -986892845, Title: "Белая Дача"},
		{ID: 2, ChatID: -1, Title: "Белая Дача"}, // duplicate is ignored
	})

	assert.Equal(t, []string{"Новая Рига", "Белая Дача"}, d.Titles())

	p, ok := d.Resolve("Белая Дача")
	require.True(t, ok)
	assert.Equal(t, int64(-986892845), p.ChatID)

	_, ok = d.Resolve("Луна")
	assert.False(t, ok)
}
