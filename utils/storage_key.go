package utils

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

const maxKeyExtLength = 10

// ImageStorageKey builds the storage key "<feed_id>/<image_id><ext>".
// Only the extension of the client filename survives, and only when it is
// short and purely alphanumeric.
func ImageStorageKey(feedID, imageID uuid.UUID, filename string) string {
	return feedID.String() + "/" + imageID.String() + SafeExtension(filename)
}

func SafeExtension(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := strings.ToLower(path.Ext(base))
	if len(ext) < 2 || len(ext) > maxKeyExtLength {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
