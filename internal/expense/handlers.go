package expense

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/expensary/expensary/internal/classify"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// corsErrorJSON writes a JSON error body with CORS headers set
func corsErrorJSON(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// handleListExpenses returns a list of all expenses
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.service.ListExpenses()
	if err != nil {
		slog.Error("Error listing expenses", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(expenses); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleUploadExpense accepts a receipt upload and starts an ingestion
// session. The response carries the session ID; the pipeline itself runs in
// the background and is observed through the session endpoints.
func (s *Server) handleUploadExpense(w http.ResponseWriter, r *http.Request) {
	// Parse multipart form (max 50MB to handle high-resolution phone photos)
	maxFormSize := int64(50 << 20) // 50MB
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		corsErrorJSON(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if err.Error() == "http: no such file" {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		corsErrorJSON(w, errorMsg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		corsErrorJSON(w, "File is too large. Maximum size is 50MB. Please compress or resize your image.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		corsErrorJSON(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := contentTypeFor(header.Header.Get("Content-Type"), header.Filename)

	session := s.service.NewSession()
	s.sessions.Add(session)

	filename := header.Filename
	go func() {
		if _, err := s.service.Ingest(context.Background(), session, filename, data, contentType); err != nil {
			slog.Error("Error ingesting expense", "filename", filename, "session", session.ID(), "error", err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]string{"session_id": session.ID()}); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// contentTypeFor normalizes the declared content type, falling back to the
// file extension when the client did not send one
func contentTypeFor(declared, filename string) string {
	contentType := declared
	if contentType == "" {
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		case ".gif":
			contentType = "image/gif"
		case ".pdf":
			contentType = "application/pdf"
		case ".heic":
			contentType = "image/heic"
		case ".heif":
			contentType = "image/heif"
		default:
			contentType = "application/octet-stream"
		}
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// handleGetSession returns the state of an upload session
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		corsError(w, "Session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(session.Snapshot()); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetSessionPreview returns the current preview for an upload session
func (s *Server) handleGetSessionPreview(w http.ResponseWriter, r *http.Request) {
	session, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		corsError(w, "Session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(session.Preview()); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleSetSessionCategory applies a category choice to an upload session,
// either accepting the standing suggestion or recording a manual value
func (s *Server) handleSetSessionCategory(w http.ResponseWriter, r *http.Request) {
	session, ok := s.sessions.Get(r.PathValue("id"))
	if !ok {
		corsError(w, "Session not found", http.StatusNotFound)
		return
	}

	var req struct {
		Category         classify.Category `json:"category"`
		AcceptSuggestion bool              `json:"accept_suggestion"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := s.service.SetCategory(session, req.Category, req.AcceptSuggestion); err != nil {
		corsErrorJSON(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(session.Snapshot()); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetExpense returns a single expense
func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Expense ID required", http.StatusBadRequest)
		return
	}
	expense, err := s.service.GetExpense(id)
	if err != nil {
		corsError(w, "Expense not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(expense); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetExpenseFile returns the file for an expense
func (s *Server) handleGetExpenseFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Expense ID required", http.StatusBadRequest)
		return
	}
	data, contentType, err := s.service.GetExpenseFile(id)
	if err != nil {
		corsError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteExpense deletes an expense
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Expense ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteExpense(id); err != nil {
		corsError(w, "Error deleting expense", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListReimbursements returns a list of all reimbursements
func (s *Server) handleListReimbursements(w http.ResponseWriter, r *http.Request) {
	reimbursements, err := s.service.ListReimbursements()
	if err != nil {
		slog.Error("Error listing reimbursements", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if reimbursements == nil {
		reimbursements = []*Reimbursement{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reimbursements); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleCreateReimbursement handles reimbursement creation
func (s *Server) handleCreateReimbursement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExpenseIDs []string `json:"expense_ids"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reimbursement, err := s.service.CreateReimbursement(req.ExpenseIDs)
	if err != nil {
		slog.Error("Error creating reimbursement", "error", err)
		corsErrorJSON(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(reimbursement); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetReimbursement returns a reimbursement with its expenses
func (s *Server) handleGetReimbursement(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Reimbursement ID required", http.StatusBadRequest)
		return
	}
	reimbursement, expenses, err := s.service.GetReimbursementWithExpenses(id)
	if err != nil {
		corsError(w, "Reimbursement not found", http.StatusNotFound)
		return
	}

	response := map[string]interface{}{
		"reimbursement": reimbursement,
		"expenses":      expenses,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}
