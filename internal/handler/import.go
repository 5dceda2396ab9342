package handler

import (
	"net/http"
)

// maxImportSize bounds the uploaded spreadsheet at 32 MiB.
const maxImportSize = 32 << 20

// importProducts accepts a multipart upload under the "file" field and runs
// the bulk catalog import. Per-row failures are reported in the response
// body, not as an HTTP error; only an unparseable file fails the request.
func (h *Handler) importProducts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		writeErrorCode(w, http.StatusBadRequest, codeMalformedFile, "multipart form required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, codeValidation, `missing "file" field`)
		return
	}
	defer func() { _ = file.Close() }()

	// The seller comes from the validated API key when present; the form
	// field is the fallback for internal tooling.
	sellerID := r.FormValue("seller_id")
	if key, ok := APIKeyFromContext(r.Context()); ok && key.SellerID != "" {
		sellerID = key.SellerID
	}
	if sellerID == "" {
		writeErrorCode(w, http.StatusBadRequest, codeValidation, "seller_id is required")
		return
	}

	report, err := h.importer.Import(r.Context(), file, header.Filename, sellerID)
	if err != nil {
		writeDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
