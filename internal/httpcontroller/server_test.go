package httpcontroller

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/histolab/msinet-go/internal/conf"
	"github.com/histolab/msinet-go/internal/datastore"
	"github.com/histolab/msinet-go/internal/msinet"
)

// fakeClassifier returns a canned prediction without touching TensorFlow Lite.
type fakeClassifier struct {
	prediction msinet.Prediction
	err        error
	calls      int
}

func (f *fakeClassifier) Classify(imagePath string) (msinet.Prediction, error) {
	f.calls++
	if f.err != nil {
		return msinet.Prediction{}, f.err
	}
	return f.prediction, nil
}

func (f *fakeClassifier) Labels() []string {
	return []string{"MSI", "MSS"}
}

// testEnv bundles a running test server with a cookie-carrying client.
type testEnv struct {
	server     *Server
	ts         *httptest.Server
	client     *http.Client
	classifier *fakeClassifier
	settings   *conf.Settings
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tempDir := t.TempDir()

	settings := &conf.Settings{}
	settings.Security.SessionSecret = "test-session-secret"
	settings.Uploads.Path = filepath.Join(tempDir, "uploads")
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(tempDir, "test.db")

	dataStore := datastore.New(settings)
	require.NoError(t, dataStore.Open(), "Failed to open datastore")
	t.Cleanup(func() { _ = dataStore.Close() })

	classifier := &fakeClassifier{}
	server := New(settings, dataStore, classifier)

	ts := httptest.NewServer(server.Echo)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	// Redirects are not followed so tests can assert on them directly.
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testEnv{
		server:     server,
		ts:         ts,
		client:     client,
		classifier: classifier,
		settings:   settings,
	}
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.Get(e.ts.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (e *testEnv) postForm(t *testing.T, path string, values url.Values) *http.Response {
	t.Helper()
	resp, err := e.client.PostForm(e.ts.URL+path, values)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) signUp(t *testing.T, email, firstName, password1, password2 string) *http.Response {
	t.Helper()
	return e.postForm(t, "/sign_up", url.Values{
		"email":     {email},
		"firstName": {firstName},
		"password1": {password1},
		"password2": {password2},
	})
}

// mustSignUp registers and logs in a default account.
func (e *testEnv) mustSignUp(t *testing.T) {
	t.Helper()
	resp := e.signUp(t, "a@b.com", "Jo", "secret1", "secret1")
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode, "Sign up should redirect")
	require.Equal(t, "/", resp.Header.Get("Location"))
}

// postUpload sends a multipart classification request. An empty filename
// omits the file part entirely.
func (e *testEnv) postUpload(t *testing.T, filename string, content []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := w.CreateFormFile("my_image", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, e.ts.URL+"/get_output", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestSignUpCreatesAccountAndLogsIn(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.mustSignUp(t)

	resp, body := env.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Account created!")
	assert.Contains(t, body, "Welcome, Jo")
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.mustSignUp(t)

	resp := env.signUp(t, "a@b.com", "Ann", "secret1", "secret1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Email already exists.")
}

func TestSignUpValidationReportsFirstFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tests := []struct {
		name      string
		email     string
		firstName string
		password1 string
		password2 string
		message   string
	}{
		{"Short email", "a@b", "Jo", "secret1", "secret1", "Email must be greater than 3 characters."},
		{"Short first name", "a@b.com", "J", "secret1", "secret1", "First name must be greater than 1 character."},
		{"Password mismatch", "a@b.com", "Jo", "secret1", "secret2", "Passwords don&#39;t match."},
		{"Short password", "a@b.com", "Jo", "secret", "secret", "Password must be at least 7 characters."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.signUp(t, tc.email, tc.firstName, tc.password1, tc.password2)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, readBody(t, resp), tc.message)
		})
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.postForm(t, "/login", url.Values{
		"email":    {"nobody@example.com"},
		"password": {"whatever"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Email does not exist.")
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.mustSignUp(t)

	resp := env.postForm(t, "/login", url.Values{
		"email":    {"a@b.com"},
		"password": {"wrongpass"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Incorrect password, try again.")
}

func TestLoginSuccessEstablishesSession(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.mustSignUp(t)

	// Log out first, then back in with the same credentials.
	resp, _ := env.get(t, "/logout")
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp = env.postForm(t, "/login", url.Values{
		"email":    {"a@b.com"},
		"password": {"secret1"},
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	resp.Body.Close()

	resp, body := env.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Logged in successfully!")
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	for _, path := range []string{"/", "/create_patient", "/upload_image", "/result_history/1"} {
		resp, _ := env.get(t, path)
		assert.Equal(t, http.StatusFound, resp.StatusCode, "Path %s should redirect", path)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
	}
}

func TestCreatePatient(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.mustSignUp(t)

	// Too short a name is rejected without persisting anything.
	resp := env.postForm(t, "/create_patient", url.Values{"firstName": {"J"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "First name must be greater than 1 character.")

	resp = env.postForm(t, "/create_patient", url.Values{"firstName": {"Maria"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	resp.Body.Close()

	resp, body := env.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Patient created!")
	assert.Contains(t, body, "Maria")
}

func TestResultHistoryUnknownPatient(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.mustSignUp(t)

	resp, body := env.get(t, "/result_history/999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Patient not found")
}

func TestSaveResultBlankPercentage(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.mustSignUp(t)

	// The upload page submits a single space when no classification ran.
	resp := env.postForm(t, "/save_result", url.Values{
		"patientID":  {"1"},
		"percentage": {" "},
		"note":       {"some note"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "No Image Submitted")
}

func TestSaveResultPersistsAndShowsInHistory(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.mustSignUp(t)

	resp := env.postForm(t, "/create_patient", url.Values{"firstName": {"Maria"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	resp.Body.Close()

	resp = env.postForm(t, "/save_result", url.Values{
		"patientID":  {"1"},
		"percentage": {"87.23%"},
		"note":       {"left quadrant biopsy"},
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	resp.Body.Close()

	resp, body := env.get(t, "/result_history/1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "87.23%")
	assert.Contains(t, body, "left quadrant biopsy")
}

func TestUploadWithoutFile(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.mustSignUp(t)

	resp := env.postUpload(t, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "No Image Selected")
	assert.Zero(t, env.classifier.calls)
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.mustSignUp(t)

	resp := env.postUpload(t, "scan.gif", []byte("not really a gif"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "File must be .jpg, .jpeg, or .png")

	// Nothing may reach the disk or the model for a rejected upload.
	assert.Zero(t, env.classifier.calls)
	assert.NoDirExists(t, env.settings.Uploads.Path)
}

func TestUploadClassifiesAndRendersPrediction(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.mustSignUp(t)

	env.classifier.prediction = msinet.Prediction{
		Scores: []msinet.Score{
			{Label: "MSI", Confidence: 0.8723},
			{Label: "MSS", Confidence: 0.1277},
		},
	}

	resp := env.postUpload(t, "scan.jpg", []byte("jpeg bytes"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "MSI")
	assert.Contains(t, body, "87.23%")
	assert.Contains(t, body, "/uploads/")
	assert.Equal(t, 1, env.classifier.calls)

	// The stored file gets a generated name, only the extension survives.
	entries, err := os.ReadDir(env.settings.Uploads.Path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".jpg", filepath.Ext(entries[0].Name()))
	assert.NotEqual(t, "scan.jpg", entries[0].Name())
}
