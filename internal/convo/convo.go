// Package convo builds the textual turn content fed to the model: the
// system prompt, the opening user message, and the per-step stack and
// register snapshot. The snapshot is a pure projection, rebuilt from
// scratch every turn.
package convo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gota/gota/series"

	"github.com/petasbytes/frame-agent/internal/frames"
)

// SystemPrompt frames the model's role for the whole session.
const SystemPrompt = `You are acting as a data analysis agent, operating on tabular data through structured tool calls to fulfill a user request.`

const preamble = `Your starting point is a dataframe containing the data set to be analyzed to fulfill the request.
You can call the provided tools to perform your analysis.

You have access to a stack of dataframes, where the initial element is the data set to be analyzed. You also have a single
register that can store a series and is overwritten whenever an operation returns a new one.
Stack positions in tool calls are top-relative: 0 is the element on top. When you don't need intermediate results at the
top of the stack, pop them off to keep the stack manageable.
When you have determined the final answer to the user request, or are stuck and cannot go further, provide your final
reply without using a tool.`

// Snapshot renders the current stack and register. Stack elements are
// listed top first and labeled by their top-relative index, matching
// the addressing used in tool calls.
func Snapshot(stack []frames.Value, register series.Series, hasRegister bool, maxRows int) string {
	var b strings.Builder
	b.WriteString("<stack>\n")
	for k := 0; k < len(stack); k++ {
		v := stack[len(stack)-1-k]
		fmt.Fprintf(&b, "<stack element %d>\n%s\n</stack element %d>\n", k, v.Repr(maxRows), k)
		if k < len(stack)-1 {
			b.WriteString("\n")
		}
	}
	b.WriteString("</stack>\n<series register>\n")
	if hasRegister {
		b.WriteString(frames.SeriesRepr(register, maxRows))
	} else {
		b.WriteString("<empty>")
	}
	b.WriteString("\n</series register>")
	return b.String()
}

// InitialMessage is the first user turn: instructions, the quoted
// request, and the opening snapshot.
func InitialMessage(request, snapshot string) string {
	return preamble + "\n\nUser request: " + strconv.Quote(request) +
		"\n\nStack and Register\n" + snapshot
}

// ToolResultText combines a step's result text with the fresh snapshot
// for the tool_result turn.
func ToolResultText(resultText, snapshot string) string {
	return resultText + "\n\nStack and Register\n" + snapshot
}
