package face

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

const DefaultEncodeTimeout = 30 * time.Second

// 打ち切り後、孫プロセスが握ったままの stdout/stderr を待つ上限
const encoderWaitDelay = time.Second

// Encoder: 画像ファイルから特徴ベクトルを得る
type Encoder interface {
	Encode(ctx context.Context, imagePath string) ([]float64, error)
}

// EncodeError: エンコーダ自身が報告した失敗（顔なし・複数人など）。利用者向けメッセージ。
type EncodeError struct {
	Message string
}

func (e *EncodeError) Error() string { return e.Message }

var ErrEncoderFailed = errors.New("face encoder failed")

const defaultEncodeFailure = "Failed to process face image"

// ProcessEncoder: `<Command> <Args...> encode <imagePath>` を実行する。
// 成功時は stdout に JSON 配列、失敗時は非0終了で stderr に {"error": "..."}。
type ProcessEncoder struct {
	Command string
	Args    []string
	Env     []string
	Timeout time.Duration
}

func NewProcessEncoder(command string, args []string, timeout time.Duration) *ProcessEncoder {
	if timeout <= 0 {
		timeout = DefaultEncodeTimeout
	}
	return &ProcessEncoder{Command: command, Args: args, Timeout: timeout}
}

func (e *ProcessEncoder) Encode(ctx context.Context, imagePath string) ([]float64, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultEncodeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, e.Args...), "encode", imagePath)
	cmd := exec.CommandContext(ctx, e.Command, args...)
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = encoderWaitDelay
	killProcessGroup(cmd)

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", ErrEncoderFailed, timeout)
		}
		return nil, fmt.Errorf("%w: %w", ErrEncoderFailed, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &EncodeError{Message: parseEncoderError(stderr.Bytes())}
		}
		return nil, fmt.Errorf("%w: %v", ErrEncoderFailed, err)
	}

	var out []float64
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &out); err != nil || out == nil {
		return nil, fmt.Errorf("%w: malformed output", ErrEncoderFailed)
	}
	return out, nil
}

// parseEncoderError: stderr の最後の JSON 行から error を拾う（Python 側の警告が混ざることがある）
func parseEncoderError(stderr []byte) string {
	lines := strings.Split(strings.TrimSpace(string(stderr)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(strings.TrimSpace(lines[i])), &payload); err == nil && payload.Error != "" {
			return payload.Error
		}
	}
	return defaultEncodeFailure
}
