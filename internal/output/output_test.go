package output

import (
	"bytes"
	"testing"

	"github.com/heavens/lambdahttp/internal/constants"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) (stdout, stderr *bytes.Buffer) {
	t.Helper()

	oldStdout, oldStderr, oldNoColor := Stdout, Stderr, color.NoColor
	t.Cleanup(func() {
		Stdout, Stderr, color.NoColor = oldStdout, oldStderr, oldNoColor
	})

	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	Stdout, Stderr = stdout, stderr
	color.NoColor = true

	return stdout, stderr
}

func TestMessages(t *testing.T) {
	stdout, stderr := capture(t)

	Successf("detected %s", "alb")
	Infof("invoking %s", "hello")
	Warningf("slow")
	Errorf("failed: %d", 502)

	assert.Empty(t, stdout.String())
	assert.Equal(t, "✓ detected alb\n→ invoking hello\n⚠ slow\n✗ failed: 502\n", stderr.String())
}

func TestHeaderAndKeyValue(t *testing.T) {
	_, stderr := capture(t)

	Header("Reply")
	KeyValue("status", "200")

	assert.Contains(t, stderr.String(), "Reply\n")
	assert.Contains(t, stderr.String(), "  status: 200\n")
}

func TestStatus(t *testing.T) {
	capture(t)

	assert.Equal(t, "200", Status(200))
	assert.Equal(t, "404", Status(404))
	assert.Equal(t, "502", Status(502))
}

func TestTable(t *testing.T) {
	stdout, stderr := capture(t)

	Table([]string{"Header", "Value"}, [][]string{
		{"content-type", "application/json"},
		{"x-id", "1"},
	})

	assert.Equal(t,
		"Header        Value             \n"+
			"────────────  ────────────────  \n"+
			"content-type  application/json  \n"+
			"x-id          1                 \n",
		stderr.String(),
	)
	assert.Empty(t, stdout.String(), "stdout carries rendered documents only")
}

func TestTable_NoHeaders(t *testing.T) {
	_, stderr := capture(t)

	Table(nil, [][]string{{"a"}})

	assert.Empty(t, stderr.String())
}

func TestVisibleWidth(t *testing.T) {
	assert.Equal(t, 5, visibleWidth("\x1b[32mhello\x1b[0m"))
	assert.Equal(t, 1, visibleWidth("✓"))
}

type document struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
	Base64     bool              `json:"isBase64Encoded"`
}

func TestMarshal_JSON(t *testing.T) {
	out, err := Marshal(constants.OutputJSON, document{StatusCode: 200, Body: "ok"})
	require.NoError(t, err)

	assert.Equal(t, "{\n  \"statusCode\": 200,\n  \"body\": \"ok\",\n  \"isBase64Encoded\": false\n}\n", string(out))
}

func TestMarshal_YAML(t *testing.T) {
	out, err := Marshal(constants.OutputYAML, document{
		StatusCode: 200,
		Headers:    map[string]string{"content-type": "text/plain"},
		Body:       "200",
	})
	require.NoError(t, err)

	assert.Equal(t, "statusCode: 200\nheaders:\n  content-type: text/plain\nbody: \"200\"\nisBase64Encoded: false\n", string(out))
}

func TestMarshal_UnsupportedFormat(t *testing.T) {
	_, err := Marshal("xml", document{})
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	stdout, _ := capture(t)

	require.NoError(t, Render(constants.OutputJSON, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", stdout.String())
}
