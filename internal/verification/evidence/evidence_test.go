package evidence_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/evidence"
	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
)

func TestLocalStorePut(t *testing.T) {
	dir := t.TempDir()
	store, err := evidence.NewLocalStore(dir, "https://evidence.campuslink.test/")
	require.NoError(t, err)

	principalID := id.NewPrincipalID()
	url, err := store.Put(context.Background(), principalID, "image/jpeg", strings.NewReader("jpeg bytes"))
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(url, "https://evidence.campuslink.test/"))
	require.True(t, strings.HasSuffix(url, ".jpg"))
	require.Contains(t, url, principalID.String())

	name := url[strings.LastIndex(url, "/")+1:]
	content, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	require.Equal(t, "jpeg bytes", string(content))
}

func TestLocalStoreURLsAreUnique(t *testing.T) {
	store, err := evidence.NewLocalStore(t.TempDir(), "http://localhost/evidence")
	require.NoError(t, err)

	principalID := id.NewPrincipalID()
	first, err := store.Put(context.Background(), principalID, "application/pdf", strings.NewReader("a"))
	require.NoError(t, err)
	second, err := store.Put(context.Background(), principalID, "application/pdf", strings.NewReader("b"))
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestLocalStoreUnknownContentType(t *testing.T) {
	store, err := evidence.NewLocalStore(t.TempDir(), "http://localhost/evidence")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), id.NewPrincipalID(), "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(url, ".bin"))
}
