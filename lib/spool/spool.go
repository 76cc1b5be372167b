// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package spool

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"filippo.io/age"
	"github.com/dustin/go-humanize"
	"github.com/pierrec/lz4/v4"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/sentry-process/lib/clock"
	"github.com/bureau-foundation/sentry-process/lib/codec"
)

// Extension is the suffix of every spool file.
const Extension = ".spool"

// RecordVersion is the current record format version.
const RecordVersion = 1

// ageHeader prefixes every age-encrypted file.
var ageHeader = []byte("age-encryption.org/")

// nameKey is the BLAKE3 key for file names: the ASCII domain name
// zero-padded to 32 bytes.
var nameKey = [32]byte{
	's', 'e', 'n', 't', 'r', 'y', '-', 'p', 'r', 'o', 'c', 'e', 's', 's', '.', 's',
	'p', 'o', 'o', 'l', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// ErrNoIdentity is returned when an encrypted record is read without an
// identity file configured.
var ErrNoIdentity = errors.New("spool: record is encrypted and no identity file is configured")

// Record is one stored envelope.
type Record struct {
	Version   int       `cbor:"version"`
	CreatedAt time.Time `cbor:"created_at"`
	Envelope  []byte    `cbor:"envelope"`
}

// Options configures a Spool.
type Options struct {
	// Directory holds the spool files. Created with mode 0700 if
	// missing.
	Directory string

	// Recipient is an age X25519 public key (age1...). When set, new
	// records are encrypted to it.
	Recipient string

	// IdentityFile is an age identity file used to read encrypted
	// records.
	IdentityFile string

	// Clock stamps records. Defaults to clock.Real().
	Clock clock.Clock

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Spool is a directory of undelivered envelopes.
type Spool struct {
	directory    string
	recipient    age.Recipient
	identityFile string
	clock        clock.Clock
	logger       *slog.Logger
}

// Open validates options and creates the spool directory.
func Open(options Options) (*Spool, error) {
	if options.Directory == "" {
		return nil, errors.New("spool: directory is required")
	}
	spool := &Spool{
		directory:    options.Directory,
		identityFile: options.IdentityFile,
		clock:        options.Clock,
		logger:       options.Logger,
	}
	if spool.clock == nil {
		spool.clock = clock.Real()
	}
	if spool.logger == nil {
		spool.logger = slog.New(slog.DiscardHandler)
	}
	if options.Recipient != "" {
		recipient, err := age.ParseX25519Recipient(options.Recipient)
		if err != nil {
			return nil, fmt.Errorf("spool: parsing recipient %q: %w", options.Recipient, err)
		}
		spool.recipient = recipient
	}
	if err := os.MkdirAll(options.Directory, 0700); err != nil {
		return nil, fmt.Errorf("spool: creating directory: %w", err)
	}
	return spool, nil
}

// Directory returns the spool directory.
func (s *Spool) Directory() string { return s.directory }

// Store writes envelope as a new record and returns the file path.
func (s *Spool) Store(envelope []byte) (string, error) {
	record, err := codec.Marshal(Record{
		Version:   RecordVersion,
		CreatedAt: s.clock.Now().UTC(),
		Envelope:  envelope,
	})
	if err != nil {
		return "", fmt.Errorf("spool: encoding record: %w", err)
	}

	data, err := s.seal(record)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.directory, fileName(record))
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	s.logger.Debug("envelope spooled",
		"path", path,
		"envelope", humanize.Bytes(uint64(len(envelope))),
		"stored", humanize.Bytes(uint64(len(data))),
	)
	return path, nil
}

// List returns the paths of all stored records in name order.
func (s *Spool) List() ([]string, error) {
	entries, err := os.ReadDir(s.directory)
	if err != nil {
		return nil, fmt.Errorf("spool: listing directory: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), Extension) {
			paths = append(paths, filepath.Join(s.directory, entry.Name()))
		}
	}
	return paths, nil
}

// Load reads and decodes the record at path.
func (s *Spool) Load(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("spool: reading %s: %w", path, err)
	}

	var source io.Reader = bytes.NewReader(data)
	if bytes.HasPrefix(data, ageHeader) {
		identities, err := s.identities()
		if err != nil {
			return Record{}, err
		}
		source, err = age.Decrypt(source, identities...)
		if err != nil {
			return Record{}, fmt.Errorf("spool: decrypting %s: %w", path, err)
		}
	}

	var record Record
	if err := codec.NewDecoder(lz4.NewReader(source)).Decode(&record); err != nil {
		return Record{}, fmt.Errorf("spool: decoding %s: %w", path, err)
	}
	if record.Version != RecordVersion {
		return Record{}, fmt.Errorf("spool: %s has unsupported record version %d", path, record.Version)
	}
	return record, nil
}

// Drain sends every stored record with send and removes each one that
// was delivered. The first failure stops the drain. It returns the
// number of records delivered.
func (s *Spool) Drain(ctx context.Context, send func(context.Context, []byte) error) (int, error) {
	paths, err := s.List()
	if err != nil {
		return 0, err
	}
	delivered := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return delivered, err
		}
		record, err := s.Load(path)
		if err != nil {
			return delivered, err
		}
		if err := send(ctx, record.Envelope); err != nil {
			return delivered, fmt.Errorf("spool: sending %s: %w", filepath.Base(path), err)
		}
		if err := os.Remove(path); err != nil {
			return delivered, fmt.Errorf("spool: removing delivered record: %w", err)
		}
		delivered++
		s.logger.Info("spooled envelope delivered",
			"path", path,
			"age", s.clock.Now().Sub(record.CreatedAt).Round(time.Second).String(),
		)
	}
	return delivered, nil
}

// seal compresses record into an LZ4 frame, encrypting the frame when a
// recipient is configured.
func (s *Spool) seal(record []byte) ([]byte, error) {
	var buffer bytes.Buffer
	var sink io.WriteCloser = nopWriteCloser{&buffer}
	if s.recipient != nil {
		encryptor, err := age.Encrypt(&buffer, s.recipient)
		if err != nil {
			return nil, fmt.Errorf("spool: creating age encryptor: %w", err)
		}
		sink = encryptor
	}

	compressor := lz4.NewWriter(sink)
	if _, err := compressor.Write(record); err != nil {
		return nil, fmt.Errorf("spool: compressing record: %w", err)
	}
	if err := compressor.Close(); err != nil {
		return nil, fmt.Errorf("spool: compressing record: %w", err)
	}
	if err := sink.Close(); err != nil {
		return nil, fmt.Errorf("spool: finalizing age encryption: %w", err)
	}
	return buffer.Bytes(), nil
}

func (s *Spool) identities() ([]age.Identity, error) {
	if s.identityFile == "" {
		return nil, ErrNoIdentity
	}
	file, err := os.Open(s.identityFile)
	if err != nil {
		return nil, fmt.Errorf("spool: opening identity file: %w", err)
	}
	defer file.Close()
	identities, err := age.ParseIdentities(file)
	if err != nil {
		return nil, fmt.Errorf("spool: parsing identity file %s: %w", s.identityFile, err)
	}
	return identities, nil
}

// fileName derives the content-addressed name of an encoded record.
func fileName(record []byte) string {
	hasher, err := blake3.NewKeyed(nameKey[:])
	if err != nil {
		// Only fails for a key that is not 32 bytes.
		panic("spool: blake3 keyed hasher: " + err.Error())
	}
	hasher.Write(record)
	return hex.EncodeToString(hasher.Sum(nil)) + Extension
}

// writeAtomic writes data to path via a temporary file and rename.
func writeAtomic(path string, data []byte) error {
	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("spool: creating temporary file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("spool: writing temporary file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("spool: syncing temporary file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("spool: closing temporary file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("spool: renaming file into place: %w", err)
	}
	return nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
