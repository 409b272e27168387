package config

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetcherFunc func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)

func (f fetcherFunc) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	return f(ctx, params, optFns...)
}

func TestParamCacheFetchesOnce(t *testing.T) {
	calls := 0
	cache := NewParamCache(fetcherFunc(func(ctx context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
		calls++
		require.True(t, aws.ToBool(params.WithDecryption))
		return &ssm.GetParameterOutput{
			Parameter: &types.Parameter{Value: aws.String("secret-value")},
		}, nil
	}))

	for range 3 {
		v, err := cache.Get(context.Background(), "/mindMesh/databaseURL")
		require.NoError(t, err)
		assert.Equal(t, "secret-value", v)
	}
	assert.Equal(t, 1, calls)
}

func TestParamCacheInvalidate(t *testing.T) {
	calls := 0
	cache := NewParamCache(fetcherFunc(func(context.Context, *ssm.GetParameterInput, ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
		calls++
		return &ssm.GetParameterOutput{
			Parameter: &types.Parameter{Value: aws.String("v")},
		}, nil
	}))

	_, err := cache.Get(context.Background(), "/k")
	require.NoError(t, err)
	cache.Invalidate("/k")
	_, err = cache.Get(context.Background(), "/k")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestParamCacheErrorsNotCached(t *testing.T) {
	calls := 0
	cache := NewParamCache(fetcherFunc(func(context.Context, *ssm.GetParameterInput, ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("throttled")
		}
		return &ssm.GetParameterOutput{
			Parameter: &types.Parameter{Value: aws.String("late")},
		}, nil
	}))

	_, err := cache.Get(context.Background(), "/k")
	require.Error(t, err)

	v, err := cache.Get(context.Background(), "/k")
	require.NoError(t, err)
	assert.Equal(t, "late", v)
}

func TestParamCacheMissingValue(t *testing.T) {
	cache := NewParamCache(fetcherFunc(func(context.Context, *ssm.GetParameterInput, ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
		return &ssm.GetParameterOutput{}, nil
	}))

	_, err := cache.Get(context.Background(), "/k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no value")
}
