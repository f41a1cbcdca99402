package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catdevman/image-tagger/internal/domain"
	"github.com/catdevman/image-tagger/internal/processor"
)

func TestSingleObjectBatchRoundTrip(t *testing.T) {
	payload, err := singleObjectBatch("imgs", "holiday/my cat+1.jpg")
	require.NoError(t, err)

	msgs, err := processor.DecodeBatch(payload)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, 1, msgs[0].ReceiveCount())

	ref, err := processor.DecodeObjectRef(msgs[0].Body)
	require.NoError(t, err)
	assert.Equal(t, domain.ObjectRef{Bucket: "imgs", Key: "holiday/my cat+1.jpg"}, ref)
}
