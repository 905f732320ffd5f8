package validator

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/Guyuepp/go-comment-engine/domain"
)

const (
	// MaxContentLength caps the plain-text projection, in characters.
	MaxContentLength = 2000
	// MaxImages caps the number of image nodes per comment.
	MaxImages = 2
	// MaxSerializedSize caps the JSON size of the whole tree. Guards against
	// adversarially deep or wide trees independent of visible text length.
	MaxSerializedSize = 20000
	// MaxDepth caps tree nesting before traversal cost matters.
	MaxDepth = 128
)

// ValidateContent checks a rich-text document tree against the structural
// and size rules. Every rule is evaluated and all violations are reported
// together in one domain.ValidationError.
func ValidateContent(root *domain.ContentNode) error {
	if root == nil {
		return domain.NewValidationError("content", domain.KindInvalidNode, "content is required")
	}

	w := &contentWalker{}
	w.walk(root, "content", 0)
	violations := w.violations

	text := root.PlainText()
	if strings.TrimSpace(text) == "" {
		violations = append(violations, domain.FieldViolation{
			Field: "content", Kind: domain.KindEmptyContent, Reason: "content is empty",
		})
	}
	if n := utf8.RuneCountInString(text); n > MaxContentLength {
		violations = append(violations, domain.FieldViolation{
			Field: "content", Kind: domain.KindContentTooLong,
			Reason: fmt.Sprintf("content has %d characters, the maximum is %d", n, MaxContentLength),
		})
	}
	if w.images > MaxImages {
		violations = append(violations, domain.FieldViolation{
			Field: "content", Kind: domain.KindTooManyImages,
			Reason: fmt.Sprintf("content has %d images, the maximum is %d", w.images, MaxImages),
		})
	}
	if raw, err := json.Marshal(root); err != nil || len(raw) > MaxSerializedSize {
		violations = append(violations, domain.FieldViolation{
			Field: "content", Kind: domain.KindContentTooLarge,
			Reason: fmt.Sprintf("serialized content exceeds %d characters", MaxSerializedSize),
		})
	}

	if len(violations) > 0 {
		return &domain.ValidationError{Violations: violations}
	}
	return nil
}

type contentWalker struct {
	images     int
	violations []domain.FieldViolation
}

func (w *contentWalker) walk(node *domain.ContentNode, path string, depth int) {
	if depth > MaxDepth {
		w.violations = append(w.violations, domain.FieldViolation{
			Field: path, Kind: domain.KindInvalidNode,
			Reason: fmt.Sprintf("content is nested deeper than %d levels", MaxDepth),
		})
		return
	}
	if node == nil || node.Type == "" {
		w.violations = append(w.violations, domain.FieldViolation{
			Field: path, Kind: domain.KindInvalidNode, Reason: "node is missing a type",
		})
		return
	}

	if node.Type == domain.NodeImage {
		w.images++
		if !isAbsoluteURL(node.Attrs["src"]) {
			w.violations = append(w.violations, domain.FieldViolation{
				Field: path + ".attrs.src", Kind: domain.KindInvalidImageSource,
				Reason: "image source must be an absolute url",
			})
		}
	}

	for i, child := range node.Content {
		w.walk(child, fmt.Sprintf("%s.content[%d]", path, i), depth+1)
	}
}

func isAbsoluteURL(v any) bool {
	s, ok := v.(string)
	if !ok || s == "" {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.IsAbs()
}
