package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"notecheck/dto"
	"notecheck/model"
	"notecheck/repository"
	"notecheck/usecase"
	"notecheck/utils"

	"github.com/gin-gonic/gin"
)

func setupNotesRouter(t *testing.T) (*gin.Engine, *usecase.NotesService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := utils.InitValidator(); err != nil {
		t.Fatalf("Failed to register validators: %v", err)
	}

	notesService := usecase.NewNotesService(repository.NewMemoryNotesRepo(), nil)
	notesHandler := NewNoteHandler(notesService)

	router := gin.New()
	router.GET("/api/Notes", notesHandler.ListNotes)
	router.POST("/api/Notes", notesHandler.CreateNote)
	router.GET("/api/Notes/:id", notesHandler.GetNote)
	router.PUT("/api/Notes/:id", notesHandler.ReplaceNote)
	router.PATCH("/api/Notes/:id", notesHandler.PatchNote)
	router.DELETE("/api/Notes/:id", notesHandler.DeleteNote)
	router.DELETE("/api/Notes/reset/all", notesHandler.ResetNotes)
	return router, notesService
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeNote(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var data map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &data); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
	return data
}

func seedNote(t *testing.T, svc *usecase.NotesService, title string) *model.Note {
	t.Helper()
	note := &model.Note{Title: title, Content: "seeded", Tags: []string{"seed"}}
	if err := svc.CreateNote(context.Background(), note); err != nil {
		t.Fatalf("Failed to seed note: %v", err)
	}
	return note
}

func tagList(n int) string {
	return "[" + strings.TrimSuffix(strings.Repeat(`"t",`, n), ",") + "]"
}

func TestCreateNoteHandler(t *testing.T) {
	router, _ := setupNotesRouter(t)

	tests := []struct {
		name          string
		inputJSON     string
		expectedCode  int
		checkResponse func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "Successful Creation",
			inputJSON: `{
				"title": "Integration Test Note",
				"content": "Test Content",
				"tags": ["integration", "test"]
			}`,
			expectedCode: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				data := decodeNote(t, w)
				for _, field := range []string{"id", "title", "content", "tags", "attachments", "createdAt", "updatedAt"} {
					if _, exists := data[field]; !exists {
						t.Errorf("Response missing required field: %s", field)
					}
				}
				if data["title"] != "Integration Test Note" {
					t.Errorf("Expected title 'Integration Test Note', got %v", data["title"])
				}
				tags, _ := data["tags"].([]interface{})
				if len(tags) != 2 || tags[0] != "integration" || tags[1] != "test" {
					t.Errorf("Expected tags echoed exactly, got %v", data["tags"])
				}
				if attachments, ok := data["attachments"].([]interface{}); !ok || len(attachments) != 0 {
					t.Errorf("Expected empty attachments array, got %v", data["attachments"])
				}
				if loc := w.Header().Get("Location"); loc == "" {
					t.Error("Expected Location header")
				}
			},
		},
		{
			name:         "Too Many Tags",
			inputJSON:    `{"title": "Tagged", "tags": ` + tagList(usecase.MaxTagsPerNote+1) + `}`,
			expectedCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				if !strings.Contains(w.Body.String(), "tags exceeds") {
					t.Errorf("Expected tag limit message, got %s", w.Body.String())
				}
			},
		},
		{
			name:         "Missing Title",
			inputJSON:    `{"content": "Test Content"}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Empty Title",
			inputJSON:    `{"title": "", "content": "Test Content"}`,
			expectedCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp utils.Response
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("Failed to parse response: %v", err)
				}
				if resp.Error != "title is required" {
					t.Errorf("Expected 'title is required', got %q", resp.Error)
				}
			},
		},
		{
			name:         "Non-string Title",
			inputJSON:    `{"title": 42}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Malformed JSON",
			inputJSON:    `{"title": "unterminated`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Whitespace Title",
			inputJSON:    `{"title": "   "}`,
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/api/Notes", tt.inputJSON)
			if w.Code != tt.expectedCode {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedCode, w.Code, w.Body.String())
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
		})
	}

	// Only the successful creation may have been stored.
	w := doRequest(router, http.MethodGet, "/api/Notes", "")
	var notes []dto.NoteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &notes); err != nil {
		t.Fatalf("Failed to parse list: %v", err)
	}
	if len(notes) != 1 {
		t.Errorf("Expected exactly one stored note, got %d", len(notes))
	}
}

func TestGetAndListNotesHandler(t *testing.T) {
	router, svc := setupNotesRouter(t)

	w := doRequest(router, http.MethodGet, "/api/Notes", "")
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Fatalf("Expected empty array, got %d %s", w.Code, w.Body.String())
	}

	note := seedNote(t, svc, "Readable")
	seedNote(t, svc, "Another")

	tests := []struct {
		name         string
		path         string
		expectedCode int
		check        func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:         "Get existing",
			path:         "/api/Notes/" + note.ID,
			expectedCode: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				if data := decodeNote(t, w); data["id"] != note.ID || data["title"] != "Readable" {
					t.Errorf("Unexpected note: %v", data)
				}
			},
		},
		{name: "Unknown id", path: "/api/Notes/507f1f77bcf86cd799439011", expectedCode: http.StatusNotFound},
		{name: "Malformed id", path: "/api/Notes/not-a-valid-id", expectedCode: http.StatusNotFound},
		{
			name:         "List",
			path:         "/api/Notes",
			expectedCode: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var notes []dto.NoteResponse
				if err := json.Unmarshal(w.Body.Bytes(), &notes); err != nil {
					t.Fatalf("Failed to parse list: %v", err)
				}
				if len(notes) != 2 || notes[0].ID != note.ID {
					t.Errorf("Expected two notes oldest first, got %+v", notes)
				}
			},
		},
		{
			name:         "Search",
			path:         "/api/Notes?q=READ",
			expectedCode: http.StatusOK,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var notes []dto.NoteResponse
				if err := json.Unmarshal(w.Body.Bytes(), &notes); err != nil {
					t.Fatalf("Failed to parse list: %v", err)
				}
				if len(notes) != 1 || notes[0].Title != "Readable" {
					t.Errorf("Expected only 'Readable', got %+v", notes)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, tt.path, "")
			if w.Code != tt.expectedCode {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedCode, w.Code, w.Body.String())
			}
			if tt.check != nil {
				tt.check(t, w)
			}
		})
	}
}

func TestUpdateNoteHandler(t *testing.T) {
	router, svc := setupNotesRouter(t)

	tests := []struct {
		name         string
		method       string
		unknownID    bool
		inputJSON    string
		expectedCode int
		check        func(*testing.T, *model.Note, map[string]interface{})
	}{
		{
			name:         "PUT replaces",
			method:       http.MethodPut,
			inputJSON:    `{"title": "Replaced"}`,
			expectedCode: http.StatusOK,
			check: func(t *testing.T, before *model.Note, data map[string]interface{}) {
				if data["title"] != "Replaced" || data["content"] != "" {
					t.Errorf("Expected full replacement, got %v", data)
				}
				if tags, _ := data["tags"].([]interface{}); len(tags) != 0 {
					t.Errorf("Expected tags reset, got %v", data["tags"])
				}
			},
		},
		{
			name:         "PATCH merges",
			method:       http.MethodPatch,
			inputJSON:    `{"title": "Patched"}`,
			expectedCode: http.StatusOK,
			check: func(t *testing.T, before *model.Note, data map[string]interface{}) {
				if data["title"] != "Patched" || data["content"] != "seeded" {
					t.Errorf("Expected merge, got %v", data)
				}
				if data["createdAt"] == nil || data["updatedAt"] == nil {
					t.Errorf("Expected timestamps, got %v", data)
				}
			},
		},
		{
			name:         "PATCH empty body returns note",
			method:       http.MethodPatch,
			inputJSON:    `{}`,
			expectedCode: http.StatusOK,
			check: func(t *testing.T, before *model.Note, data map[string]interface{}) {
				if data["title"] != before.Title {
					t.Errorf("Expected unchanged note, got %v", data)
				}
			},
		},
		{name: "PUT empty title", method: http.MethodPut, inputJSON: `{"title": ""}`, expectedCode: http.StatusUnprocessableEntity},
		{name: "PATCH empty title", method: http.MethodPatch, inputJSON: `{"title": "  "}`, expectedCode: http.StatusUnprocessableEntity},
		{name: "PUT too many tags", method: http.MethodPut, inputJSON: `{"title": "Original", "tags": ` + tagList(usecase.MaxTagsPerNote+1) + `}`, expectedCode: http.StatusUnprocessableEntity},
		{name: "PATCH content too long", method: http.MethodPatch, inputJSON: `{"content": "` + strings.Repeat("a", usecase.MaxContentLength+1) + `"}`, expectedCode: http.StatusUnprocessableEntity},
		{name: "PUT missing title", method: http.MethodPut, inputJSON: `{"content": "x"}`, expectedCode: http.StatusBadRequest},
		{name: "PATCH malformed", method: http.MethodPatch, inputJSON: `{"title": 7}`, expectedCode: http.StatusBadRequest},
		{name: "PUT unknown", method: http.MethodPut, unknownID: true, inputJSON: `{"title": "x"}`, expectedCode: http.StatusNotFound},
		{name: "PATCH unknown", method: http.MethodPatch, unknownID: true, inputJSON: `{"title": "x"}`, expectedCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note := seedNote(t, svc, "Original")
			id := note.ID
			if tt.unknownID {
				id = "507f1f77bcf86cd799439011"
			}

			w := doRequest(router, tt.method, "/api/Notes/"+id, tt.inputJSON)
			if w.Code != tt.expectedCode {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedCode, w.Code, w.Body.String())
			}
			if tt.check != nil {
				tt.check(t, note, decodeNote(t, w))
			}
			if w.Code >= 400 && !tt.unknownID {
				stored, err := svc.GetNote(context.Background(), note.ID)
				if err != nil {
					t.Fatalf("Failed to read back note: %v", err)
				}
				if stored.Title != "Original" {
					t.Errorf("Rejected update changed the title to %q", stored.Title)
				}
			}
		})
	}
}

func TestDeleteAndResetHandler(t *testing.T) {
	router, svc := setupNotesRouter(t)
	note := seedNote(t, svc, "Doomed")
	seedNote(t, svc, "Survivor")

	w := doRequest(router, http.MethodDelete, "/api/Notes/"+note.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if data := decodeNote(t, w); data["id"] != note.ID {
		t.Errorf("Expected deleted id in response, got %v", data)
	}

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		if w := doRequest(router, method, "/api/Notes/"+note.ID, ""); w.Code != http.StatusNotFound {
			t.Errorf("%s after delete: expected 404, got %d", method, w.Code)
		}
	}
	if w := doRequest(router, http.MethodDelete, "/api/Notes/garbage", ""); w.Code != http.StatusNotFound {
		t.Errorf("Malformed delete: expected 404, got %d", w.Code)
	}

	w = doRequest(router, http.MethodDelete, "/api/Notes/reset/all", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected reset 200, got %d", w.Code)
	}
	var reset dto.ResetResponse
	if err := json.Unmarshal(w.Body.Bytes(), &reset); err != nil {
		t.Fatalf("Failed to parse reset response: %v", err)
	}
	if reset.Deleted != 1 {
		t.Errorf("Expected 1 deleted, got %d", reset.Deleted)
	}
	if w := doRequest(router, http.MethodGet, "/api/Notes", ""); w.Body.String() != "[]" {
		t.Errorf("Expected empty list after reset, got %s", w.Body.String())
	}
}

func TestVerbDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewNoteHandler(usecase.NewNotesService(repository.NewMemoryNotesRepo(), nil))
	router := gin.New()
	router.PUT("/api/Notes/:id", h.VerbDisabled)

	w := doRequest(router, http.MethodPut, "/api/Notes/abc", `{"title":"x"}`)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", w.Code)
	}
}
