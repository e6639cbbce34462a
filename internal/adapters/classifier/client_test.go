package classifier_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/mindstats/internal/adapters/classifier"
	. "github.com/smartystreets/goconvey/convey"
)

func reply(text string) string {
	body, _ := json.Marshal(map[string]any{
		"output": []any{map[string]any{
			"type": "message",
			"role": "assistant",
			"content": []any{map[string]any{
				"type": "output_text",
				"text": text,
			}},
		}},
	})
	return string(body)
}

func TestClassify(t *testing.T) {
	ctx := context.Background()

	Convey("Given a server that answers with structured output", t, func() {
		var got map[string]any
		var auth, path string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth, path = r.Header.Get("Authorization"), r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = w.Write([]byte(reply(`{"emerging_themes":["exam stress","loneliness"]}`)))
		}))
		Reset(srv.Close)

		c, err := classifier.New(
			classifier.WithBaseURL(srv.URL+"/"),
			classifier.WithAPIKey("secret"),
			classifier.WithModel("test-model"),
		)
		So(err, ShouldBeNil)

		labels, err := c.Classify(ctx, "find themes", []string{"a", "b"})

		Convey("Then the labels are decoded", func() {
			So(err, ShouldBeNil)
			So(labels, ShouldResemble, []string{"exam stress", "loneliness"})
		})

		Convey("Then the request carries model, auth and schema", func() {
			So(path, ShouldEqual, "/v1/responses")
			So(auth, ShouldEqual, "Bearer secret")
			So(got["model"], ShouldEqual, "test-model")

			input := got["input"].([]any)
			So(input, ShouldHaveLength, 2)
			So(input[0].(map[string]any)["content"], ShouldEqual, "find themes")
			So(input[1].(map[string]any)["content"], ShouldContainSubstring, "a\n\n---\n\nb")

			format := got["text"].(map[string]any)["format"].(map[string]any)
			So(format["type"], ShouldEqual, "json_schema")
			So(format["name"], ShouldEqual, "emerging_themes")
			schema := format["schema"].(map[string]any)
			So(schema["type"], ShouldEqual, "object")
			So(schema["properties"], ShouldContainKey, "emerging_themes")
		})
	})

	Convey("Given a server that fails", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		Reset(srv.Close)

		c, _ := classifier.New(classifier.WithBaseURL(srv.URL))
		_, err := c.Classify(ctx, "x", []string{"a"})

		Convey("Then a status error is returned", func() {
			So(errors.Is(err, classifier.ErrStatus), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "429")
		})
	})

	Convey("Given a server that returns no text", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"output":[]}`))
		}))
		Reset(srv.Close)

		c, _ := classifier.New(classifier.WithBaseURL(srv.URL))
		_, err := c.Classify(ctx, "x", []string{"a"})

		Convey("Then an empty output error is returned", func() {
			So(errors.Is(err, classifier.ErrEmptyOutput), ShouldBeTrue)
		})
	})

	Convey("Given a server that refuses", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"output":[{"type":"message","content":[{"type":"refusal","refusal":"no"}]}]}`))
		}))
		Reset(srv.Close)

		c, _ := classifier.New(classifier.WithBaseURL(srv.URL))
		_, err := c.Classify(ctx, "x", []string{"a"})

		Convey("Then a refusal error is returned", func() {
			So(errors.Is(err, classifier.ErrRefused), ShouldBeTrue)
			So(strings.HasSuffix(err.Error(), "no"), ShouldBeTrue)
		})
	})
}
