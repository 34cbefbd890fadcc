// Sentinel errors shared by the storage, download and playback packages.
// Expected conditions (absence, quota) are surfaced as wrapped sentinels so
// callers can branch with errors.Is instead of matching strings.

package errdefs

import "errors"

var (
	// ErrStorageUnavailable means the local metadata store or blob cache
	// could not be opened at all. Fatal for the whole offline subsystem.
	ErrStorageUnavailable = errors.New("local storage unavailable")

	// ErrNotFound means a chapter or its audio blob is absent from local
	// storage at read time.
	ErrNotFound = errors.New("not found in offline storage")

	// ErrFetchFailed means the network fetch of a chapter's audio failed.
	// No partial state is committed when this is returned.
	ErrFetchFailed = errors.New("audio fetch failed")

	// ErrQuotaExceeded means a blob write failed due to device limits.
	// Previously stored chapters remain valid.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)
