package counters

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constRead(v float64) ReadFunc {
	return func(context.Context, string) (float64, error) { return v, nil }
}

func testSet() *Set {
	return NewSet(
		&Category{
			Name: "Memory",
			Counters: map[string]ReadFunc{
				"Available Bytes": constRead(8 * 1024 * 1024),
				"Broken": func(context.Context, string) (float64, error) {
					return 0, errors.New("boom")
				},
			},
		},
		&Category{
			Name: "Processor",
			Instances: func(context.Context) ([]string, error) {
				return []string{"0", "1"}, nil
			},
			Counters: map[string]ReadFunc{
				"% Processor Time": func(_ context.Context, instance string) (float64, error) {
					switch instance {
					case TotalInstance:
						return 50, nil
					case "0":
						return 40, nil
					case "1":
						return 60, nil
					}
					return 0, ErrInstanceNotFound
				},
			},
		},
	)
}

func TestSetExistence(t *testing.T) {
	ctx := context.Background()
	s := testSet()

	assert.Equal(t, []string{"Memory", "Processor"}, s.Categories())
	assert.True(t, s.CategoryExists("Memory"))
	assert.False(t, s.CategoryExists("Paging File"))

	assert.True(t, s.CounterExists("Memory", "Available Bytes"))
	assert.False(t, s.CounterExists("Memory", "Committed Bytes"))
	assert.False(t, s.CounterExists("Paging File", "Available Bytes"))

	assert.True(t, s.InstanceExists(ctx, "Memory", ""))
	assert.False(t, s.InstanceExists(ctx, "Memory", "0"))
	assert.True(t, s.InstanceExists(ctx, "Processor", TotalInstance))
	assert.True(t, s.InstanceExists(ctx, "Processor", "1"))
	assert.False(t, s.InstanceExists(ctx, "Processor", "7"))
	assert.False(t, s.InstanceExists(ctx, "Processor", ""))
	assert.False(t, s.InstanceExists(ctx, "Paging File", TotalInstance))

	assert.Equal(t, []string{"Available Bytes", "Broken"}, s.Counters("Memory"))
	assert.Nil(t, s.Counters("Paging File"))
}

func TestSetInstances(t *testing.T) {
	ctx := context.Background()
	s := testSet()

	instances, err := s.Instances(ctx, "Processor")
	require.NoError(t, err)
	assert.Equal(t, []string{TotalInstance, "0", "1"}, instances)

	instances, err = s.Instances(ctx, "Memory")
	require.NoError(t, err)
	assert.Empty(t, instances)

	_, err = s.Instances(ctx, "Paging File")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestSetInstancesError(t *testing.T) {
	s := NewSet(&Category{
		Name: "PhysicalDisk",
		Instances: func(context.Context) ([]string, error) {
			return nil, errors.New("no permission")
		},
		Counters: map[string]ReadFunc{"Disk Reads/sec": constRead(1)},
	})

	_, err := s.Instances(context.Background(), "PhysicalDisk")
	assert.Error(t, err)
	assert.False(t, s.InstanceExists(context.Background(), "PhysicalDisk", "sda"))
	assert.True(t, s.InstanceExists(context.Background(), "PhysicalDisk", TotalInstance))
}

func TestSetRead(t *testing.T) {
	ctx := context.Background()
	s := testSet()

	v, err := s.Read(ctx, "Processor", "% Processor Time", "0")
	require.NoError(t, err)
	assert.Equal(t, 40.0, v)

	v, err = s.Read(ctx, "Processor", "% Processor Time", "")
	require.NoError(t, err)
	assert.Equal(t, 50.0, v, "empty instance reads the total")

	_, err = s.Read(ctx, "Memory", "Available Bytes", "0")
	assert.ErrorIs(t, err, ErrInstanceNotFound)

	_, err = s.Read(ctx, "Memory", "Committed Bytes", "")
	assert.ErrorIs(t, err, ErrCounterNotFound)

	_, err = s.Read(ctx, "Paging File", "% Usage", "")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestNewSetReplacesDuplicates(t *testing.T) {
	s := NewSet(
		&Category{Name: "Memory", Counters: map[string]ReadFunc{"Old": constRead(1)}},
		nil,
		&Category{Name: "Memory", Counters: map[string]ReadFunc{"New": constRead(2)}},
	)
	assert.False(t, s.CounterExists("Memory", "Old"))
	assert.True(t, s.CounterExists("Memory", "New"))

	c, ok := s.Category("Memory")
	require.True(t, ok)
	assert.False(t, c.MultiInstance())
}

func TestSetInstanceExistsUsesHasInstance(t *testing.T) {
	listed := 0
	s := NewSet(&Category{
		Name: "Process",
		Instances: func(context.Context) ([]string, error) {
			listed++
			return []string{"worker"}, nil
		},
		HasInstance: func(_ context.Context, instance string) bool {
			return instance == "perfcounters"
		},
		Counters: map[string]ReadFunc{"Thread Count": constRead(4)},
	})

	assert.True(t, s.InstanceExists(context.Background(), "Process", "perfcounters"))
	assert.False(t, s.InstanceExists(context.Background(), "Process", "worker"))
	assert.True(t, s.InstanceExists(context.Background(), "Process", TotalInstance))
	assert.Zero(t, listed)
}

func TestDescribe(t *testing.T) {
	set := testSet()
	set.categories["Processor"].Help = "Processor time."

	infos := Describe(context.Background(), set)
	require.Len(t, infos, 2)

	assert.Equal(t, "Memory", infos[0].Name)
	assert.Equal(t, []string{"Available Bytes", "Broken"}, infos[0].Counters)
	assert.Empty(t, infos[0].Instances)

	assert.Equal(t, "Processor", infos[1].Name)
	assert.Equal(t, "Processor time.", infos[1].Help)
	assert.Equal(t, []string{TotalInstance, "0", "1"}, infos[1].Instances)
	assert.Empty(t, infos[1].Error)
}
