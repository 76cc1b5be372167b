// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package spool

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"filippo.io/age"

	"github.com/bureau-foundation/sentry-process/lib/clock"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func openSpool(t *testing.T, options Options) *Spool {
	t.Helper()
	if options.Directory == "" {
		options.Directory = filepath.Join(t.TempDir(), "spool")
	}
	if options.Clock == nil {
		options.Clock = clock.Fake(testTime)
	}
	spool, err := Open(options)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return spool
}

// writeIdentity generates an age identity, writes it to a file, and
// returns the file path and the recipient string.
func writeIdentity(t *testing.T) (string, string) {
	t.Helper()
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatalf("GenerateX25519Identity: %v", err)
	}
	path := filepath.Join(t.TempDir(), "identity.txt")
	if err := os.WriteFile(path, []byte(identity.String()+"\n"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path, identity.Recipient().String()
}

func TestStoreLoadPlain(t *testing.T) {
	spool := openSpool(t, Options{})
	envelope := []byte("{\"event_id\":\"abc\"}\n{\"type\":\"event\",\"length\":2}\n{}\n")

	path, err := spool.Store(envelope)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !strings.HasSuffix(path, Extension) {
		t.Errorf("path %q does not end in %s", path, Extension)
	}
	if name := strings.TrimSuffix(filepath.Base(path), Extension); len(name) != 64 {
		t.Errorf("file name %q is not a 32-byte hex hash", name)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %o, want 600", perm)
	}

	record, err := spool.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(record.Envelope, envelope) {
		t.Errorf("Envelope = %q, want %q", record.Envelope, envelope)
	}
	if record.Version != RecordVersion {
		t.Errorf("Version = %d, want %d", record.Version, RecordVersion)
	}
	if !record.CreatedAt.Equal(testTime) {
		t.Errorf("CreatedAt = %v, want %v", record.CreatedAt, testTime)
	}
}

func TestStoreIsContentAddressed(t *testing.T) {
	spool := openSpool(t, Options{})

	first, err := spool.Store([]byte("one"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	again, err := spool.Store([]byte("one"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	other, err := spool.Store([]byte("two"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if first != again {
		t.Errorf("same record stored under %q and %q", first, again)
	}
	if first == other {
		t.Errorf("different records share name %q", first)
	}
	paths, err := spool.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("List() = %v, want 2 files", paths)
	}
}

func TestStoreLoadEncrypted(t *testing.T) {
	identityFile, recipient := writeIdentity(t)
	spool := openSpool(t, Options{Recipient: recipient, IdentityFile: identityFile})

	path, err := spool.Store([]byte("secret stderr"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.HasPrefix(data, ageHeader) {
		t.Fatalf("stored file is not age-encrypted: %q", data[:min(len(data), 32)])
	}
	if bytes.Contains(data, []byte("secret stderr")) {
		t.Error("stored file contains the plaintext envelope")
	}

	record, err := spool.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(record.Envelope) != "secret stderr" {
		t.Errorf("Envelope = %q, want %q", record.Envelope, "secret stderr")
	}
}

func TestLoadEncryptedWithoutIdentity(t *testing.T) {
	_, recipient := writeIdentity(t)
	directory := filepath.Join(t.TempDir(), "spool")
	writer := openSpool(t, Options{Directory: directory, Recipient: recipient})
	path, err := writer.Store([]byte("payload"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	reader := openSpool(t, Options{Directory: directory})
	if _, err := reader.Load(path); !errors.Is(err, ErrNoIdentity) {
		t.Fatalf("Load error = %v, want ErrNoIdentity", err)
	}

	wrongIdentity, _ := writeIdentity(t)
	wrong := openSpool(t, Options{Directory: directory, IdentityFile: wrongIdentity})
	if _, err := wrong.Load(path); err == nil {
		t.Fatal("Load with the wrong identity succeeded, want error")
	}
}

func TestOpenRejectsBadRecipient(t *testing.T) {
	_, err := Open(Options{Directory: t.TempDir(), Recipient: "age1notakey"})
	if err == nil {
		t.Fatal("Open with invalid recipient succeeded, want error")
	}
	if _, err := Open(Options{}); err == nil {
		t.Fatal("Open without directory succeeded, want error")
	}
}

func TestListIgnoresOtherFiles(t *testing.T) {
	spool := openSpool(t, Options{})
	if _, err := spool.Store([]byte("kept")); err != nil {
		t.Fatalf("Store: %v", err)
	}
	for _, name := range []string{"leftover.spool.tmp", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(spool.Directory(), name), []byte("x"), 0600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(spool.Directory(), "nested.spool"), 0700); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	paths, err := spool.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 1 {
		t.Errorf("List() = %v, want exactly the stored record", paths)
	}
}

func TestDrain(t *testing.T) {
	identityFile, recipient := writeIdentity(t)
	spool := openSpool(t, Options{Recipient: recipient, IdentityFile: identityFile})
	for _, envelope := range []string{"first", "second", "third"} {
		if _, err := spool.Store([]byte(envelope)); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}

	sent := map[string]bool{}
	delivered, err := spool.Drain(context.Background(), func(ctx context.Context, envelope []byte) error {
		sent[string(envelope)] = true
		return nil
	})
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if delivered != 3 {
		t.Errorf("delivered = %d, want 3", delivered)
	}
	for _, envelope := range []string{"first", "second", "third"} {
		if !sent[envelope] {
			t.Errorf("envelope %q was not sent", envelope)
		}
	}
	paths, err := spool.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("List() after drain = %v, want empty", paths)
	}
}

func TestDrainStopsAtFirstFailure(t *testing.T) {
	spool := openSpool(t, Options{})
	for _, envelope := range []string{"a", "b"} {
		if _, err := spool.Store([]byte(envelope)); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}

	sendErr := errors.New("service unavailable")
	calls := 0
	delivered, err := spool.Drain(context.Background(), func(ctx context.Context, envelope []byte) error {
		calls++
		return sendErr
	})
	if !errors.Is(err, sendErr) {
		t.Fatalf("Drain error = %v, want %v", err, sendErr)
	}
	if delivered != 0 || calls != 1 {
		t.Errorf("delivered = %d, calls = %d, want 0 and 1", delivered, calls)
	}
	paths, err := spool.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("List() after failed drain = %v, want both records kept", paths)
	}
}

func TestDrainCancelled(t *testing.T) {
	spool := openSpool(t, Options{})
	if _, err := spool.Store([]byte("a")); err != nil {
		t.Fatalf("Store: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	delivered, err := spool.Drain(ctx, func(context.Context, []byte) error {
		t.Error("send called after cancellation")
		return nil
	})
	if !errors.Is(err, context.Canceled) || delivered != 0 {
		t.Fatalf("Drain = (%d, %v), want (0, context.Canceled)", delivered, err)
	}
}
