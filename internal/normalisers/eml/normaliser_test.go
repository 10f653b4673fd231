package eml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailrag/internal/core/domain"
)

func TestNormalise_SimpleEmail(t *testing.T) {
	msg := `From: Jane Doe <jane@example.com>
To: team@example.com
Subject: Sprint review moved
Date: Mon, 01 Jan 2024 10:00:00 +0000
Content-Type: text/plain

The sprint review is now on Thursday.
Bring your demos.
`
	req, err := New().Normalise([]byte(msg), "review.eml")
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe <jane@example.com>", req.Sender)
	assert.Equal(t, "Sprint review moved", req.Subject)
	assert.Equal(t, "The sprint review is now on Thursday.\nBring your demos.", req.Body)
}

func TestNormalise_BareAddress(t *testing.T) {
	msg := "From: ops@example.com\nSubject: x\n\nbody\n"
	req, err := New().Normalise([]byte(msg), "")
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", req.Sender)
}

func TestNormalise_SubjectFallsBackToName(t *testing.T) {
	msg := "From: a@example.com\nContent-Type: text/plain\n\nNo subject here.\n"
	req, err := New().Normalise([]byte(msg), "/mail/quarterly_review-notes.eml")
	require.NoError(t, err)
	assert.Equal(t, "quarterly review notes", req.Subject)
}

func TestNormalise_HTMLBody(t *testing.T) {
	msg := `From: a@example.com
Subject: HTML
Content-Type: text/html

<html><head><style>p { color: red }</style></head>
<body><h1>Hello</h1><p>This is <b>HTML</b> &amp; more.</p></body></html>
`
	req, err := New().Normalise([]byte(msg), "")
	require.NoError(t, err)

	assert.Contains(t, req.Body, "Hello")
	assert.Contains(t, req.Body, "This is HTML & more.")
	assert.NotContains(t, req.Body, "<p>")
	assert.NotContains(t, req.Body, "color")
}

func TestNormalise_MultipartPrefersPlain(t *testing.T) {
	msg := `From: a@example.com
Subject: Multipart
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/plain

Plain version.
--b1
Content-Type: text/html

<p>HTML version</p>
--b1--
`
	req, err := New().Normalise([]byte(msg), "")
	require.NoError(t, err)
	assert.Equal(t, "Plain version.", req.Body)
}

func TestNormalise_MultipartHTMLOnlySkipsAttachments(t *testing.T) {
	msg := `From: a@example.com
Subject: Invoice
Content-Type: multipart/mixed; boundary="outer"

--outer
Content-Type: text/html

<p>See attached invoice.</p>
--outer
Content-Type: text/plain
Content-Disposition: attachment; filename="invoice.txt"

attachment text
--outer--
`
	req, err := New().Normalise([]byte(msg), "")
	require.NoError(t, err)
	assert.Equal(t, "See attached invoice.", req.Body)
}

func TestNormalise_NestedMultipart(t *testing.T) {
	msg := `From: a@example.com
Subject: Nested
Content-Type: multipart/mixed; boundary="outer"

--outer
Content-Type: multipart/alternative; boundary="inner"

--inner
Content-Type: text/plain

Inner plain.
--inner--
--outer--
`
	req, err := New().Normalise([]byte(msg), "")
	require.NoError(t, err)
	assert.Equal(t, "Inner plain.", req.Body)
}

func TestNormalise_TransferEncodings(t *testing.T) {
	t.Run("base64", func(t *testing.T) {
		msg := "From: a@example.com\nSubject: b64\nContent-Type: text/plain; charset=utf-8\n" +
			"Content-Transfer-Encoding: base64\n\nSGVsbG8g\nd29ybGQ=\n"
		req, err := New().Normalise([]byte(msg), "")
		require.NoError(t, err)
		assert.Equal(t, "Hello world", req.Body)
	})

	t.Run("quoted-printable", func(t *testing.T) {
		msg := "From: a@example.com\nSubject: qp\nContent-Type: text/plain; charset=utf-8\n" +
			"Content-Transfer-Encoding: quoted-printable\n\nCaf=C3=A9 at no=\non\n"
		req, err := New().Normalise([]byte(msg), "")
		require.NoError(t, err)
		assert.Equal(t, "Café at noon", req.Body)
	})
}

func TestNormalise_LegacyCharset(t *testing.T) {
	// "회의" in EUC-KR.
	body := string([]byte{0xc8, 0xb8, 0xc0, 0xc7})
	msg := "From: a@example.com\nSubject: =?EUC-KR?B?yLjAxw==?=\nContent-Type: text/plain; charset=euc-kr\n\n" + body + "\n"

	req, err := New().Normalise([]byte(msg), "")
	require.NoError(t, err)
	assert.Equal(t, "회의", req.Subject)
	assert.Equal(t, "회의", req.Body)
}

func TestNormalise_EncodedSubject(t *testing.T) {
	msg := "From: =?UTF-8?Q?J=C3=BCrgen?= <j@example.com>\nSubject: =?UTF-8?B?VGVzdCBFbWFpbA==?=\n\nb\n"
	req, err := New().Normalise([]byte(msg), "")
	require.NoError(t, err)
	assert.Equal(t, "Test Email", req.Subject)
	assert.Equal(t, "Jürgen <j@example.com>", req.Sender)
}

func TestNormalise_Invalid(t *testing.T) {
	_, err := New().Normalise([]byte("this is not a message"), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormaliseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "standup.eml")
	require.NoError(t, os.WriteFile(path, []byte("From: a@example.com\n\nStandup at 9.\n"), 0o600))

	req, err := New().NormaliseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "standup", req.Subject)
	assert.Equal(t, "Standup at 9.", req.Body)

	_, err = New().NormaliseFile(filepath.Join(dir, "missing.eml"))
	assert.Error(t, err)
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "no tags", want: "no tags"},
		{name: "paragraphs", in: "<p>one</p><p>two</p>", want: "one\ntwo"},
		{name: "line breaks", in: "a<br>b<br/>c", want: "a\nb\nc"},
		{name: "entities", in: "5 &lt; 6 &amp;&amp; 7", want: "5 < 6 && 7"},
		{name: "script dropped", in: "<script>alert(1)</script>text", want: "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripHTML(tt.in))
		})
	}
}
