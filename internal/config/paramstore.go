package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParamFetcher is the slice of the SSM API the cache needs.
type ParamFetcher interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ParamCache memoizes decrypted SSM parameters for the lifetime of the
// process. It is write-once-read-many: values are never refreshed
// automatically; call Invalidate after rotating a credential.
type ParamCache struct {
	client ParamFetcher

	mu     sync.RWMutex
	values map[string]string
}

func NewParamCache(client ParamFetcher) *ParamCache {
	return &ParamCache{client: client, values: make(map[string]string)}
}

// Get returns the decrypted parameter value, fetching it at most once.
func (c *ParamCache) Get(ctx context.Context, name string) (string, error) {
	c.mu.RLock()
	v, ok := c.values[name]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	out, err := c.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s has no value", name)
	}

	c.mu.Lock()
	c.values[name] = *out.Parameter.Value
	c.mu.Unlock()

	return *out.Parameter.Value, nil
}

// Invalidate drops a cached value so the next Get refetches it.
func (c *ParamCache) Invalidate(name string) {
	c.mu.Lock()
	delete(c.values, name)
	c.mu.Unlock()
}
