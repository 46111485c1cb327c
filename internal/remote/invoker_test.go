package remote

import (
	"context"
	"errors"
	"testing"

	"github.com/heavens/lambdahttp/internal/testutil"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	input *lambda.InvokeInput
	out   *lambda.InvokeOutput
	err   error
}

func (m *mockClient) Invoke(
	_ context.Context, params *lambda.InvokeInput, _ ...func(*lambda.Options),
) (*lambda.InvokeOutput, error) {
	m.input = params
	return m.out, m.err
}

func TestNewInvoker_Validation(t *testing.T) {
	_, err := NewInvoker(nil, "fn", nil)
	assert.Error(t, err)

	_, err = NewInvoker(&mockClient{}, "", nil)
	assert.Error(t, err)
}

func TestInvoker_Invoke(t *testing.T) {
	client := &mockClient{out: &lambda.InvokeOutput{StatusCode: 200, Payload: []byte(`{"statusCode":200}`)}}
	inv, err := NewInvoker(client, "my-function", testutil.SilentLogger(), WithQualifier("live"))
	require.NoError(t, err)

	out, err := inv.Invoke(context.Background(), []byte(`{"version":"2.0"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"statusCode":200}`, string(out))

	require.NotNil(t, client.input)
	assert.Equal(t, "my-function", aws.ToString(client.input.FunctionName))
	assert.Equal(t, "live", aws.ToString(client.input.Qualifier))
	assert.Equal(t, types.InvocationTypeRequestResponse, client.input.InvocationType)
	assert.Equal(t, `{"version":"2.0"}`, string(client.input.Payload))
}

func TestInvoker_InvokeWithoutQualifier(t *testing.T) {
	client := &mockClient{out: &lambda.InvokeOutput{StatusCode: 200}}
	inv, err := NewInvoker(client, "fn", testutil.SilentLogger())
	require.NoError(t, err)

	_, err = inv.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, client.input.Qualifier)
}

func TestInvoker_FunctionError(t *testing.T) {
	client := &mockClient{out: &lambda.InvokeOutput{
		StatusCode:    200,
		FunctionError: aws.String("Unhandled"),
		Payload:       []byte(`{"errorMessage":"boom"}`),
	}}
	inv, err := NewInvoker(client, "fn", testutil.SilentLogger())
	require.NoError(t, err)

	out, err := inv.Invoke(context.Background(), []byte(`{}`))
	assert.Nil(t, out)

	var fnErr *FunctionError
	require.ErrorAs(t, err, &fnErr)
	assert.Equal(t, "fn", fnErr.Function)
	assert.Equal(t, "Unhandled", fnErr.Kind)
	assert.Contains(t, fnErr.Error(), "boom")
}

func TestInvoker_ClientError(t *testing.T) {
	cause := errors.New("throttled")
	inv, err := NewInvoker(&mockClient{err: cause}, "fn", testutil.SilentLogger())
	require.NoError(t, err)

	_, err = inv.Invoke(context.Background(), []byte(`{}`))
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to invoke function fn")
}
