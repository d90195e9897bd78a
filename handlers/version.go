package handlers

import (
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/gorilla/mux"
)

// Version is stamped at build time with -ldflags "-X cinecard/handlers.Version=...".
var Version string

var (
	resolvedVersion string
	versionOnce     sync.Once
)

type VersionHandler struct{}

type VersionResponse struct {
	Version string `json:"version"`
}

func NewVersionHandler() *VersionHandler {
	return &VersionHandler{}
}

// Register mounts GET /api/version.
func (h *VersionHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/version", h.GetVersion).Methods(http.MethodGet)
}

// BuildVersion returns the stamped version, falling back to the module
// version recorded in the binary.
func BuildVersion() string {
	versionOnce.Do(func() {
		resolvedVersion = Version
		if resolvedVersion != "" {
			return
		}
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
			return
		}
		resolvedVersion = "unknown"
	})
	return resolvedVersion
}

func (h *VersionHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: BuildVersion()})
}
