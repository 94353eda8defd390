package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3API is the slice of the S3 client this store uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3 stores sessions as JSON objects under sessions/{id}.json and audio
// captures under recordings/{id}/.
type S3 struct {
	client s3API
	bucket string
}

// NewS3 wraps an S3 client for the given bucket.
func NewS3(client *s3.Client, bucket string) *S3 {
	return &S3{client: client, bucket: bucket}
}

func newS3WithAPI(client s3API, bucket string) *S3 {
	return &S3{client: client, bucket: bucket}
}

func sessionKey(id string) string {
	return fmt.Sprintf("sessions/%s.json", id)
}

func (s *S3) SaveSession(ctx context.Context, sess *Session) error {
	body, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", sess.ID, err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(sessionKey(sess.ID)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *S3) GetSession(ctx context.Context, id string) (*Session, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(sessionKey(id)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

// AppendTranscript is a read-modify-write over the whole session object.
// Concurrent appenders can lose entries; callers serialize per session.
func (s *S3) AppendTranscript(ctx context.Context, id string, msg Message) error {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	sess.Transcript = append(sess.Transcript, msg)
	sess.UpdatedAt = time.Now().UTC()
	return s.SaveSession(ctx, sess)
}

func (s *S3) ListSessions(ctx context.Context) ([]*Session, error) {
	var sessions []*Session
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String("sessions/"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			id := strings.TrimSuffix(strings.TrimPrefix(key, "sessions/"), ".json")
			sess, err := s.GetSession(ctx, id)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return nil, err
			}
			sessions = append(sessions, sess)
		}
		if out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}
	return sessions, nil
}

func (s *S3) SaveRecording(ctx context.Context, sessionID string, wav []byte) (string, error) {
	key := fmt.Sprintf("recordings/%s/audio_%s.wav", sessionID, time.Now().UTC().Format("20060102_150405"))
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(wav),
		ContentType: aws.String("audio/wav"),
	})
	if err != nil {
		return "", fmt.Errorf("put recording for %s: %w", sessionID, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
