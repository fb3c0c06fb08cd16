package imagegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesKeyword(t *testing.T) {
	for _, kw := range Keywords() {
		assert.True(t, MatchesKeyword("please "+kw+" now"), kw)
	}

	assert.True(t, MatchesKeyword("我想画"))
	assert.True(t, MatchesKeyword("an oil painting"))
	assert.True(t, MatchesKeyword("send img"))

	assert.False(t, MatchesKeyword(""))
	assert.False(t, MatchesKeyword("IMG"))
	assert.False(t, MatchesKeyword("Painting"))
	assert.False(t, MatchesKeyword("绘 图"))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindConfigMissing, KindOf(configMissing()))
	assert.Equal(t, KindProvider, KindOf(providerError(assert.AnError)))
	assert.False(t, KindProvider.UserFixable())
	assert.Equal(t, "provider_error", KindProvider.String())
	assert.ErrorIs(t, providerError(assert.AnError), assert.AnError)
}
