package main

import (
	"net/http"

	"github.com/liftlog/liftlog/internal/backup"
)

// backupExportGET streams the full dataset as a JSON archive.
func (app *application) backupExportGET(w http.ResponseWriter, r *http.Request) {
	archive, err := app.backups.Export(r.Context())
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="liftlog-backup.json"`)
	app.writeJSON(w, r, http.StatusOK, archive)
}

// backupImportPOST restores an archive, replacing the current dataset.
func (app *application) backupImportPOST(w http.ResponseWriter, r *http.Request) {
	var archive backup.Archive
	if !app.readJSON(w, r, &archive) {
		return
	}

	if err := app.backups.Import(r.Context(), archive); err != nil {
		app.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
