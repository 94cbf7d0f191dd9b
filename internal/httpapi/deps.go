package httpapi

import (
	"log"
	"time"

	"github.com/shpitdev/profile-finder/internal/ui"
	"github.com/shpitdev/profile-finder/pkg/pipeline/core"
)

type Deps struct {
	Dispatcher core.Dispatcher
	Store      *ui.Store

	// MaxUploadBytes caps the multipart body of /submit. Zero means 10 MiB.
	MaxUploadBytes int64

	Logger  *log.Logger
	Version string

	// Now is the clock for export filenames and submit timestamps.
	Now func() time.Time
}
