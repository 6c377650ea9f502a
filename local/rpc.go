package local

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/tidwall/gjson"
)

// Sidecar methods.
const (
	methodLoad     = "load"
	methodGenerate = "generate"
	methodShutdown = "shutdown"
)

// Error codes the sidecar replies with. The first group is defined by
// JSON-RPC 2.0; the second describes generation failures.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602

	CodeBackendError     = -32000
	CodeModelNotFound    = -32001
	CodeConnectionError  = -32003
	CodeSequenceOverflow = -32004
	CodeDecodeError      = -32005
)

// maxLine bounds a single reply. Generated text for long dialogues can exceed
// bufio's default token size.
const maxLine = 4 << 20

type rpcRequest struct {
	Version string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcReply struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// RPCError is an error object returned by the sidecar.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if len(e.Data) == 0 {
		return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("RPC error %d: %s (data: %s)", e.Code, e.Message, e.Data)
}

// GenerateParams asks the sidecar to sample a continuation of Prompt.
type GenerateParams struct {
	Prompt       string   `json:"prompt"`
	Model        string   `json:"model,omitempty"`
	MaxNewTokens int      `json:"max_new_tokens,omitempty"`
	Temperature  float64  `json:"temperature,omitempty"`
	TopP         float64  `json:"top_p,omitempty"`
	Stop         []string `json:"stop,omitempty"`
}

// GenerateResult carries the prompt followed by the sampled continuation.
type GenerateResult struct {
	Text         string        `json:"text"`
	Model        string        `json:"model,omitempty"`
	FinishReason string        `json:"finish_reason,omitempty"`
	Usage        GenerateUsage `json:"usage"`
}

// GenerateUsage counts prompt and continuation tokens.
type GenerateUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type loadParams struct {
	Runtime string `json:"runtime"`
	Model   string `json:"model"`
	Device  string `json:"device,omitempty"`
	Host    string `json:"host,omitempty"`
}

type loadResult struct {
	Ready   bool   `json:"ready"`
	Message string `json:"message,omitempty"`
}

// Conn speaks newline-delimited JSON-RPC 2.0 to a sidecar.
//
// Lines without an id are progress notifications or library chatter (model
// download bars, warnings) and are skipped, as are replies to earlier calls
// that were abandoned by their caller.
type Conn struct {
	w  io.Writer
	in *bufio.Scanner

	mu   sync.Mutex
	seq  int64
	wbuf []byte
}

// NewConn returns a Conn that reads replies from r and writes requests to w.
func NewConn(r io.Reader, w io.Writer) *Conn {
	in := bufio.NewScanner(r)
	in.Buffer(make([]byte, 0, 64<<10), maxLine)
	return &Conn{w: w, in: in}
}

// Call sends one request and decodes the matching reply into result, which
// may be nil. Calls are serialized.
func (c *Conn) Call(method string, params, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	id := c.seq
	if err := c.write(rpcRequest{Version: "2.0", ID: id, Method: method, Params: params}); err != nil {
		return fmt.Errorf("send %s: %w", method, err)
	}

	for {
		line, err := c.readReply(id)
		if err != nil {
			return fmt.Errorf("read %s reply: %w", method, err)
		}
		if line == nil {
			continue
		}

		var reply rpcReply
		if err := json.Unmarshal(line, &reply); err != nil {
			return fmt.Errorf("decode %s reply: %w", method, err)
		}
		if reply.Error != nil {
			return reply.Error
		}
		if result == nil || len(reply.Result) == 0 {
			return nil
		}
		return json.Unmarshal(reply.Result, result)
	}
}

// readReply returns the next line if it answers id, or nil for anything else.
func (c *Conn) readReply(id int64) ([]byte, error) {
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return nil, err
		}
		return nil, io.ErrUnexpectedEOF
	}
	line := c.in.Bytes()
	if !isReply(line) || gjson.GetBytes(line, "id").Int() != id {
		return nil, nil
	}
	return line, nil
}

func (c *Conn) write(req rpcRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	c.wbuf = append(append(c.wbuf[:0], data...), '\n')
	_, err = c.w.Write(c.wbuf)
	return err
}

// isReply reports whether line is a JSON object carrying an id.
func isReply(line []byte) bool {
	return gjson.ValidBytes(line) && gjson.GetBytes(line, "id").Exists()
}
