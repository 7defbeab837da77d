package cli

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputWrites(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutput(&buf)

	out.Write("Answer: ")
	out.Write("use an index")
	out.Println("")
	fmt.Fprint(out.Stream(), "{ ok: 1 }\n")
	out.Markdown("plain **text**")

	assert.Equal(t, "Answer: use an index\n{ ok: 1 }\nplain **text**\n", buf.String())
}
