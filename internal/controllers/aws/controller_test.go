package aws_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/isometry/twilio-fm-relay/internal/controllers/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	value *string
	err   error
	input *ssm.GetParameterInput
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: f.value}}, nil
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestGetSecret(t *testing.T) {
	testCases := []struct {
		Name        string
		SSM         *fakeSSM
		Expected    string
		ExpectError bool
	}{
		{
			Name:     "found",
			SSM:      &fakeSSM{value: awssdk.String(`{"filemaker_password":"p"}`)},
			Expected: `{"filemaker_password":"p"}`,
		},
		{
			Name:        "missing_value",
			SSM:         &fakeSSM{},
			ExpectError: true,
		},
		{
			Name:        "api_error",
			SSM:         &fakeSSM{err: errors.New("denied")},
			ExpectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			ctl, err := aws.NewController(aws.WithClients(tc.SSM, &fakeS3{}))
			require.NoError(t, err)

			v, err := ctl.GetSecret("/relay/creds", true)
			if tc.ExpectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, *v)
			assert.Equal(t, "/relay/creds", *tc.SSM.input.Name)
			assert.True(t, *tc.SSM.input.WithDecryption)
		})
	}
}

func TestPutS3Object(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeS3{}
	ctl, err := aws.NewController(
		aws.WithClients(&fakeSSM{}, store),
		aws.WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	key, err := ctl.PutS3Object(context.Background(), "req-1", "archive", []byte(`{"Sid":"EV1"}`))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T00:00:00Z.req-1.json", key)
	assert.Equal(t, "archive", *store.input.Bucket)
	assert.Equal(t, "application/json", *store.input.ContentType)
	assert.Equal(t, `{"Sid":"EV1"}`, store.body)

	store.input = nil
	key, err = ctl.PutS3Object(context.Background(), "req-2", "", nil)
	require.NoError(t, err)
	assert.Empty(t, key)
	assert.Nil(t, store.input)
}
