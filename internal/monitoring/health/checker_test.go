package health

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theblitlabs/perfcounters/internal/counters"
)

type fixedSize int

func (s fixedSize) Len() int { return int(s) }

func testSource() *counters.Set {
	return counters.NewSet(
		&counters.Category{
			Name: "Memory",
			Counters: map[string]counters.ReadFunc{
				"Available Bytes": func(context.Context, string) (float64, error) { return 1024, nil },
			},
		},
		&counters.Category{
			Name: "Processor",
			Instances: func(context.Context) ([]string, error) {
				return []string{"0"}, nil
			},
			Counters: map[string]counters.ReadFunc{
				"% Processor Time": func(_ context.Context, instance string) (float64, error) {
					if instance != counters.TotalInstance {
						return 0, errors.New("probe should use the total instance")
					}
					return math.NaN(), nil
				},
			},
		},
		&counters.Category{
			Name: "PhysicalDisk",
			Counters: map[string]counters.ReadFunc{
				"Disk Reads/sec": func(context.Context, string) (float64, error) {
					return 0, errors.New("no disks")
				},
			},
		},
		&counters.Category{Name: "Empty", Counters: map[string]counters.ReadFunc{}},
	)
}

func TestCheckAll(t *testing.T) {
	hc := NewHealthChecker(time.Minute, fixedSize(3), testSource())
	hc.CheckAll()

	all := hc.GetAllHealth()
	require.Len(t, all, 5)

	assert.Equal(t, StatusOK, all[RegistryComponent].Status)
	assert.Equal(t, "3 gauges registered", all[RegistryComponent].Message)
	assert.Equal(t, StatusOK, all[CategoryComponent("Memory")].Status)
	assert.Equal(t, StatusWarning, all[CategoryComponent("Processor")].Status)
	assert.Equal(t, StatusError, all[CategoryComponent("PhysicalDisk")].Status)
	assert.Contains(t, all[CategoryComponent("PhysicalDisk")].Message, "no disks")
	assert.Equal(t, StatusWarning, all[CategoryComponent("Empty")].Status)

	assert.Equal(t, StatusError, hc.Overall())
}

func TestEmptyRegistryIsAnError(t *testing.T) {
	hc := NewHealthChecker(time.Minute, fixedSize(0), nil)
	hc.CheckAll()

	h := hc.GetComponentHealth(RegistryComponent)
	require.NotNil(t, h)
	assert.Equal(t, StatusError, h.Status)
	assert.Equal(t, StatusError, hc.Overall())
	assert.Nil(t, hc.GetComponentHealth("category:Memory"))
}

func TestGetComponentHealthReturnsCopy(t *testing.T) {
	hc := NewHealthChecker(time.Minute, fixedSize(1), nil)
	hc.CheckAll()

	h := hc.GetComponentHealth(RegistryComponent)
	h.Status = StatusError
	assert.Equal(t, StatusOK, hc.GetComponentHealth(RegistryComponent).Status)
	assert.Equal(t, StatusOK, hc.Overall())
}

func TestStartRunsInitialCheck(t *testing.T) {
	hc := NewHealthChecker(time.Hour, fixedSize(1), testSource())
	require.NoError(t, hc.Start())
	defer hc.Stop()

	require.Eventually(t, func() bool {
		return hc.GetComponentHealth(CategoryComponent("Memory")) != nil
	}, time.Second, 10*time.Millisecond)
}
