package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
)

// txLog はテスト用ドライバが見た Tx の開始・終了を記録する
type txLog struct {
	mu        sync.Mutex
	readOnly  []bool
	commits   int
	rollbacks int
}

var recorded = &txLog{}

type recDriver struct{}

func (recDriver) Open(string) (driver.Conn, error) { return recConn{}, nil }

type recConn struct{}

func (recConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (recConn) Close() error                        { return nil }
func (recConn) Begin() (driver.Tx, error)           { return recTx{}, nil }

func (recConn) BeginTx(_ context.Context, opts driver.TxOptions) (driver.Tx, error) {
	recorded.mu.Lock()
	recorded.readOnly = append(recorded.readOnly, opts.ReadOnly)
	recorded.mu.Unlock()
	return recTx{}, nil
}

type recTx struct{}

func (recTx) Commit() error {
	recorded.mu.Lock()
	recorded.commits++
	recorded.mu.Unlock()
	return nil
}

func (recTx) Rollback() error {
	recorded.mu.Lock()
	recorded.rollbacks++
	recorded.mu.Unlock()
	return nil
}

func init() { sql.Register("txrecorder", recDriver{}) }

func openRecorder(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("txrecorder", "")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	recorded.mu.Lock()
	recorded.readOnly = nil
	recorded.commits = 0
	recorded.rollbacks = 0
	recorded.mu.Unlock()
	return conn
}

func TestReadOnlyCommits(t *testing.T) {
	conn := openRecorder(t)
	called := false
	err := ReadOnly(context.Background(), conn, func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("ReadOnly = %v, called = %v", err, called)
	}
	if len(recorded.readOnly) != 1 || !recorded.readOnly[0] {
		t.Errorf("readOnly = %v, want [true]", recorded.readOnly)
	}
	if recorded.commits != 1 || recorded.rollbacks != 0 {
		t.Errorf("commits = %d rollbacks = %d", recorded.commits, recorded.rollbacks)
	}
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	conn := openRecorder(t)
	boom := errors.New("boom")
	err := RunInTx(context.Background(), conn, nil, func(ctx context.Context, tx DBTX) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if recorded.readOnly[0] {
		t.Error("RunInTx with nil opts started a read-only tx")
	}
	if recorded.commits != 0 || recorded.rollbacks != 1 {
		t.Errorf("commits = %d rollbacks = %d", recorded.commits, recorded.rollbacks)
	}
}
