package i18n

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)

	ctx := context.Background()
	assert.Equal(t, "Checked In", tr.T(ctx, "analytics.attendance.checkedIn"))
	assert.Equal(t, "Failed to upload file. Please try again.", tr.T(ctx, "interactive_dialog.error.file_upload_failed"))
	assert.Equal(t, "Detail for alice", tr.T(ctx, "analytics.attendance.userDetail", map[string]interface{}{"Username": "alice"}))
	assert.Equal(t, "missing.id", tr.T(ctx, "missing.id"))
}

func TestTranslateLocaleFromContext(t *testing.T) {
	tr, err := New("")
	require.NoError(t, err)

	ctx := WithLocale(context.Background(), "vi")
	assert.Equal(t, "vi", tr.LocaleFromContext(ctx))
	assert.Equal(t, "Đi muộn", tr.T(ctx, "analytics.attendance.lateArrivals"))
	assert.Equal(t, "Late Arrivals", tr.Localize("fr", "analytics.attendance.lateArrivals"))
	assert.ElementsMatch(t, []string{"en", "vi"}, tr.Locales())
}

func TestNilTranslatorEchoesID(t *testing.T) {
	var tr *Translator
	assert.Equal(t, "analytics.attendance.title", tr.Localize("en", "analytics.attendance.title"))
}
