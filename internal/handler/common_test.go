package handler

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestIndexToRowLabel(t *testing.T) {
    cases := map[int]string{
        0:  "A",
        1:  "B",
        25: "Z",
        26: "AA",
        27: "AB",
        51: "AZ",
        52: "BA",
    }
    for in, want := range cases {
        assert.Equal(t, want, indexToRowLabel(in), "index %d", in)
    }
    assert.Empty(t, indexToRowLabel(-1))
}

func TestLayoutLabels(t *testing.T) {
    labels := layoutLabels(2, 3)
    assert.Equal(t, []string{"A1", "A2", "A3", "B1", "B2", "B3"}, labels)

    assert.Len(t, layoutLabels(26, 10), 260)
    assert.Empty(t, layoutLabels(0, 4))
}
