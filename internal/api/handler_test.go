package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/AngeberMerkel1/KarteikartenBot/internal/importer"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/service"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := store.NewMemory()
	sessions := service.NewSessionService(s, importer.New(s, logger), service.NewMemoryStates(0), logger)

	srv := httptest.NewServer(NewRouter(NewHandler(s, sessions, logger), []string{"*"}))
	t.Cleanup(srv.Close)
	return srv
}

// do sends a request and decodes a JSON response into out (if non-nil).
func do(t *testing.T, srv *httptest.Server, method, path, contentType, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

const algebraDoc = `{"chapter_name": "Algebra", "questions": [
  {"question": "2+2?", "answer": "4"},
  {"question": "3*3?", "answer": "9"}
]}`

// newPracticeSession creates a session on Math/Algebra with two questions.
func newPracticeSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	if code := do(t, srv, "POST", "/topics", "application/json", `{"name": "Math"}`, nil); code != http.StatusCreated {
		t.Fatalf("create topic: expected 201, got %d", code)
	}

	var sess SessionResponse
	if code := do(t, srv, "POST", "/sessions", "", "", &sess); code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d", code)
	}
	base := "/sessions/" + sess.ID
	if code := do(t, srv, "PUT", base+"/topic", "application/json", `{"name": "Math"}`, nil); code != http.StatusOK {
		t.Fatalf("select topic: expected 200, got %d", code)
	}
	if code := do(t, srv, "POST", base+"/imports", "application/json", algebraDoc, nil); code != http.StatusCreated {
		t.Fatalf("import: expected 201, got %d", code)
	}
	if code := do(t, srv, "PUT", base+"/chapter", "application/json", `{"name": "Algebra"}`, nil); code != http.StatusOK {
		t.Fatalf("select chapter: expected 200, got %d", code)
	}
	return sess.ID
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	var body map[string]string
	if code := do(t, srv, "GET", "/health", "", "", &body); code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("expected 200 ok, got %d %v", code, body)
	}
}

func TestTopics(t *testing.T) {
	srv := newTestServer(t)

	var created TopicResponse
	if code := do(t, srv, "POST", "/topics", "application/json", `{"name": "  Geschichte "}`, &created); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if created.Name != "Geschichte" || created.ID == 0 {
		t.Errorf("unexpected topic %+v", created)
	}

	var again TopicResponse
	do(t, srv, "POST", "/topics", "application/json", `{"name": "Geschichte"}`, &again)
	if again.ID != created.ID {
		t.Errorf("expected same id %d, got %d", created.ID, again.ID)
	}

	var names []string
	do(t, srv, "GET", "/topics", "", "", &names)
	if len(names) != 1 || names[0] != "Geschichte" {
		t.Errorf("expected [Geschichte], got %v", names)
	}
}

func TestCreateTopic_Invalid(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []string{`{"name": ""}`, `{"name": "   "}`, `not json`} {
		var errResp ErrorResponse
		if code := do(t, srv, "POST", "/topics", "application/json", body, &errResp); code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, code)
		}
		if errResp.Error == "" {
			t.Errorf("%s: expected an error message", body)
		}
	}
}

func TestChaptersAndQuestions(t *testing.T) {
	srv := newTestServer(t)
	newPracticeSession(t, srv)

	var chapters []string
	if code := do(t, srv, "GET", "/topics/Math/chapters", "", "", &chapters); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if len(chapters) != 1 || chapters[0] != "Algebra" {
		t.Errorf("expected [Algebra], got %v", chapters)
	}

	var qs []QuestionResponse
	do(t, srv, "GET", "/topics/Math/chapters/Algebra/questions", "", "", &qs)
	if len(qs) != 2 || qs[0].Question != "2+2?" || qs[0].Level != 1 {
		t.Errorf("unexpected questions %+v", qs)
	}

	if code := do(t, srv, "GET", "/topics/Physics/chapters", "", "", nil); code != http.StatusNotFound {
		t.Errorf("unknown topic: expected 404, got %d", code)
	}
	if code := do(t, srv, "GET", "/topics/Math/chapters/Geometry/questions", "", "", nil); code != http.StatusNotFound {
		t.Errorf("unknown chapter: expected 404, got %d", code)
	}
}

func TestChapterNameWithSpaces(t *testing.T) {
	srv := newTestServer(t)
	id := newPracticeSession(t, srv)

	doc := `{"chapter_name": "Lineare Gleichungen", "questions": [{"question": "x+1=2?", "answer": "1"}]}`
	do(t, srv, "POST", "/sessions/"+id+"/imports", "application/json", doc, nil)

	var qs []QuestionResponse
	path := "/topics/Math/chapters/" + url.PathEscape("Lineare Gleichungen") + "/questions"
	if code := do(t, srv, "GET", path, "", "", &qs); code != http.StatusOK || len(qs) != 1 {
		t.Errorf("expected 1 question, got %d %+v", code, qs)
	}
}

func TestTopicNamesWithEscapes(t *testing.T) {
	srv := newTestServer(t)

	for _, name := range []string{"50%20off", "a/b", "100%", "Brüche & Co"} {
		body, _ := json.Marshal(map[string]string{"name": name})
		if code := do(t, srv, "POST", "/topics", "application/json", string(body), nil); code != http.StatusCreated {
			t.Fatalf("create %q: expected 201, got %d", name, code)
		}

		var chapters []string
		path := "/topics/" + url.PathEscape(name) + "/chapters"
		if code := do(t, srv, "GET", path, "", "", &chapters); code != http.StatusOK {
			t.Errorf("list chapters of %q: expected 200, got %d", name, code)
		}
	}
}

func TestPracticeCycle(t *testing.T) {
	srv := newTestServer(t)
	base := "/sessions/" + newPracticeSession(t, srv)

	var sess SessionResponse
	do(t, srv, "GET", base, "", "", &sess)
	if sess.Topic != "Math" || sess.Chapter != "Algebra" || sess.Questions != 2 || sess.State != "idle" {
		t.Errorf("unexpected session %+v", sess)
	}

	var card CardResponse
	if code := do(t, srv, "POST", base+"/next", "", "", &card); code != http.StatusOK {
		t.Fatalf("next: expected 200, got %d", code)
	}
	if card.Answer != "" || card.Revealed {
		t.Errorf("expected hidden answer, got %+v", card)
	}

	var current CardResponse
	do(t, srv, "GET", base+"/current", "", "", &current)
	if current.QuestionID != card.QuestionID {
		t.Errorf("expected current %d, got %d", card.QuestionID, current.QuestionID)
	}

	var revealed CardResponse
	do(t, srv, "POST", base+"/reveal", "", "", &revealed)
	if !revealed.Revealed || revealed.Answer == "" {
		t.Errorf("expected revealed answer, got %+v", revealed)
	}

	var graded GradeResponse
	if code := do(t, srv, "POST", base+"/grade", "application/json", `{"correct": true}`, &graded); code != http.StatusOK {
		t.Fatalf("grade: expected 200, got %d", code)
	}
	if !graded.Correct || graded.Level != 2 {
		t.Errorf("expected level 2, got %+v", graded)
	}

	var qs []QuestionResponse
	do(t, srv, "GET", base+"/questions", "", "", &qs)
	for _, q := range qs {
		if q.ID == card.QuestionID && q.Level != 2 {
			t.Errorf("expected persisted level 2, got %d", q.Level)
		}
	}
}

func TestPracticeCycle_Conflicts(t *testing.T) {
	srv := newTestServer(t)
	base := "/sessions/" + newPracticeSession(t, srv)

	if code := do(t, srv, "POST", base+"/reveal", "", "", nil); code != http.StatusConflict {
		t.Errorf("reveal while idle: expected 409, got %d", code)
	}
	if code := do(t, srv, "GET", base+"/current", "", "", nil); code != http.StatusConflict {
		t.Errorf("current while idle: expected 409, got %d", code)
	}
	do(t, srv, "POST", base+"/next", "", "", nil)
	if code := do(t, srv, "POST", base+"/grade", "application/json", `{"correct": false}`, nil); code != http.StatusConflict {
		t.Errorf("grade before reveal: expected 409, got %d", code)
	}
	if code := do(t, srv, "POST", base+"/grade", "application/json", `{}`, nil); code != http.StatusBadRequest {
		t.Errorf("grade without correct: expected 400, got %d", code)
	}
}

func TestSession_NoSelection(t *testing.T) {
	srv := newTestServer(t)

	var sess SessionResponse
	do(t, srv, "POST", "/sessions", "", "", &sess)
	base := "/sessions/" + sess.ID

	if code := do(t, srv, "POST", base+"/next", "", "", nil); code != http.StatusConflict {
		t.Errorf("next without chapter: expected 409, got %d", code)
	}
	if code := do(t, srv, "PUT", base+"/chapter", "application/json", `{"name": "Algebra"}`, nil); code != http.StatusConflict {
		t.Errorf("chapter without topic: expected 409, got %d", code)
	}
	if code := do(t, srv, "POST", base+"/imports", "application/json", algebraDoc, nil); code != http.StatusConflict {
		t.Errorf("import without topic: expected 409, got %d", code)
	}
	if code := do(t, srv, "PUT", base+"/topic", "application/json", `{"name": "Unknown"}`, nil); code != http.StatusNotFound {
		t.Errorf("unknown topic: expected 404, got %d", code)
	}
}

func TestSession_NotFound(t *testing.T) {
	srv := newTestServer(t)

	if code := do(t, srv, "GET", "/sessions/missing", "", "", nil); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
	if code := do(t, srv, "DELETE", "/sessions/missing", "", "", nil); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer(t)
	base := "/sessions/" + newPracticeSession(t, srv)

	if code := do(t, srv, "DELETE", base, "", "", nil); code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", code)
	}
	if code := do(t, srv, "GET", base, "", "", nil); code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", code)
	}
}

func TestImport_YAMLAndSkips(t *testing.T) {
	srv := newTestServer(t)
	base := "/sessions/" + newPracticeSession(t, srv)

	doc := "chapter_name: Algebra\nquestions:\n  - question: \"2+2?\"\n    answer: \"4\"\n  - question: \"10/2?\"\n    answer: \"5\"\n"
	var res ImportResponse
	if code := do(t, srv, "POST", base+"/imports", "application/yaml", doc, &res); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if res.ChapterCreated || res.Added != 1 || res.Skipped != 1 || res.Chapter != "Algebra" {
		t.Errorf("unexpected result %+v", res)
	}

	var sess SessionResponse
	do(t, srv, "GET", base, "", "", &sess)
	if sess.Questions != 3 {
		t.Errorf("expected working set of 3 after import, got %d", sess.Questions)
	}
}

func TestImport_InvalidDocument(t *testing.T) {
	srv := newTestServer(t)
	base := "/sessions/" + newPracticeSession(t, srv)

	var errResp ErrorResponse
	code := do(t, srv, "POST", base+"/imports", "application/json", `{"chapter_name": "Broken", "questions": [{"question": "q"}]}`, &errResp)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if len(errResp.Problems) == 0 {
		t.Error("expected problems to be listed")
	}

	var chapters []string
	do(t, srv, "GET", "/topics/Math/chapters", "", "", &chapters)
	if len(chapters) != 1 {
		t.Errorf("expected no chapter to be created, got %v", chapters)
	}
}

func TestExportChapter(t *testing.T) {
	srv := newTestServer(t)
	newPracticeSession(t, srv)

	resp, err := srv.Client().Get(srv.URL + "/topics/Math/chapters/Algebra/export.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type %q", ct)
	}

	data, _ := io.ReadAll(resp.Body)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("expected a workbook, got %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows("Algebra")
	if len(rows) != 3 {
		t.Errorf("expected header + 2 rows, got %v", rows)
	}
}

func TestExportChapter_NonASCIIFilename(t *testing.T) {
	srv := newTestServer(t)
	id := newPracticeSession(t, srv)

	doc := `{"chapter_name": "Brüche", "questions": [{"question": "1/2 + 1/2?", "answer": "1"}]}`
	if code := do(t, srv, "POST", "/sessions/"+id+"/imports", "application/json", doc, nil); code != http.StatusCreated {
		t.Fatalf("import: expected 201, got %d", code)
	}

	resp, err := srv.Client().Get(srv.URL + "/topics/Math/chapters/" + url.PathEscape("Brüche") + "/export.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	disposition, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
	if err != nil {
		t.Fatalf("unparsable Content-Disposition %q: %v", resp.Header.Get("Content-Disposition"), err)
	}
	if disposition != "attachment" {
		t.Errorf("expected attachment, got %q", disposition)
	}
	if got := params["filename"]; got != "Brüche.xlsx" {
		t.Errorf("expected filename %q, got %q", "Brüche.xlsx", got)
	}
}

func TestClearAll(t *testing.T) {
	srv := newTestServer(t)
	base := "/sessions/" + newPracticeSession(t, srv)

	if code := do(t, srv, "DELETE", "/data", "", "", nil); code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", code)
	}

	var names []string
	do(t, srv, "GET", "/topics", "", "", &names)
	if len(names) != 0 {
		t.Errorf("expected no topics, got %v", names)
	}

	var sess SessionResponse
	do(t, srv, "GET", base, "", "", &sess)
	if sess.Topic != "" || sess.Chapter != "" || sess.Questions != 0 {
		t.Errorf("expected reset session, got %+v", sess)
	}
}
