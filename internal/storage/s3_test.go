package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/filmfriends/backend/internal/config"
)

type recordingUploader struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (u *recordingUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	u.input = input
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	u.body = string(data)
	if u.err != nil {
		return nil, u.err
	}
	return &manager.UploadOutput{Key: input.Key}, nil
}

func TestS3StorageSave(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ObjectStoreConfig
		file    string
		wantKey string
		wantLoc string
	}{
		{
			name:    "prefixed key without public url",
			cfg:     config.ObjectStoreConfig{Bucket: "b", Prefix: "/snapshots/"},
			file:    "likes/1.json",
			wantKey: "snapshots/likes/1.json",
			wantLoc: "snapshots/likes/1.json",
		},
		{
			name:    "public url",
			cfg:     config.ObjectStoreConfig{Bucket: "b", PublicBaseURL: "https://cdn.example.com/"},
			file:    "/likes/2.json",
			wantKey: "likes/2.json",
			wantLoc: "https://cdn.example.com/likes/2.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &recordingUploader{}
			store := newS3Storage(up, tt.cfg)

			loc, err := store.Save(context.Background(), tt.file, "application/json", strings.NewReader("{}"))
			if err != nil {
				t.Fatalf("Save: %v", err)
			}
			if loc != tt.wantLoc {
				t.Fatalf("location = %q, want %q", loc, tt.wantLoc)
			}
			if got := aws.ToString(up.input.Key); got != tt.wantKey {
				t.Fatalf("key = %q, want %q", got, tt.wantKey)
			}
			if got := aws.ToString(up.input.Bucket); got != "b" {
				t.Fatalf("bucket = %q", got)
			}
			if got := aws.ToString(up.input.ContentType); got != "application/json" {
				t.Fatalf("content type = %q", got)
			}
			if up.body != "{}" {
				t.Fatalf("body = %q", up.body)
			}
		})
	}
}

func TestS3StorageSaveErrors(t *testing.T) {
	store := newS3Storage(&recordingUploader{}, config.ObjectStoreConfig{Bucket: "b"})
	if _, err := store.Save(context.Background(), "/", "", strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty key")
	}

	failing := &recordingUploader{err: errors.New("access denied")}
	store = newS3Storage(failing, config.ObjectStoreConfig{Bucket: "b"})
	if _, err := store.Save(context.Background(), "x.json", "", strings.NewReader("{}")); err == nil {
		t.Fatal("expected upload error")
	}
}

func TestNewS3StorageRequiresBucket(t *testing.T) {
	if _, err := NewS3Storage(context.Background(), config.ObjectStoreConfig{}); err == nil {
		t.Fatal("expected error without bucket")
	}
}
