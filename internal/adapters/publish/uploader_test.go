package publish_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/okian/finishline/internal/adapters/publish"
	"github.com/okian/finishline/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

type fakeS3 struct {
	fails  int
	calls  int
	keys   []string
	bodies []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.calls++
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.keys = append(f.keys, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	f.bodies = append(f.bodies, string(data))
	if f.calls <= f.fails {
		return nil, errors.New("SlowDown")
	}
	return &s3.PutObjectOutput{}, nil
}

func TestUpload(t *testing.T) {
	testCases := []struct {
		name      string
		fails     int
		retries   int
		wantErr   error
		wantCalls int
		wantWaits []time.Duration
	}{
		{
			name:      "first attempt succeeds",
			retries:   3,
			wantCalls: 1,
		},
		{
			name:      "recovers after two failures",
			fails:     2,
			retries:   3,
			wantCalls: 3,
			wantWaits: []time.Duration{200 * time.Millisecond, 400 * time.Millisecond},
		},
		{
			name:      "backoff is capped at two seconds",
			fails:     10,
			retries:   6,
			wantErr:   publish.ErrUploadFailed,
			wantCalls: 6,
			wantWaits: []time.Duration{
				200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond,
				1600 * time.Millisecond, 2 * time.Second,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeS3{fails: tc.fails}
			var waits []time.Duration
			u := publish.New(fake, "results-bucket",
				publish.WithPrefix("clean/"),
				publish.WithRetries(tc.retries),
				publish.WithSleeper(func(_ context.Context, d time.Duration) error {
					waits = append(waits, d)
					return nil
				}))

			err := u.Upload(context.Background(), "races.csv", strings.NewReader("eventCode\n"), 10)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tc.wantCalls, fake.calls)
			require.Equal(t, tc.wantWaits, waits)
			for i := range fake.calls {
				require.Equal(t, "results-bucket/clean/races.csv", fake.keys[i])
				require.Equal(t, "eventCode\n", fake.bodies[i], "body must be rewound for attempt %d", i+1)
			}
		})
	}
}

func TestUploadWithoutBucket(t *testing.T) {
	u := publish.New(&fakeS3{}, "")
	err := u.Upload(context.Background(), "races.csv", strings.NewReader(""), 0)
	require.ErrorIs(t, err, publish.ErrNoBucket)
}

func TestUploadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := &fakeS3{}
	err := publish.New(fake, "b").Upload(ctx, "races.csv", strings.NewReader("x"), 1)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, fake.calls)
}
