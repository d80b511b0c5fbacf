package pingate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"RapidSafe/internal/models"
)

func creds(normal, duress string) models.Credentials {
	return models.Credentials{NormalPin: normal, DuressPin: duress, IsPinSet: true}
}

func TestEvaluate(t *testing.T) {
	c := creds("1234", "9999")
	assert.Equal(t, Normal, Evaluate("1234", c))
	assert.Equal(t, Duress, Evaluate("9999", c))
	assert.Equal(t, Invalid, Evaluate("1235", c))
	assert.Equal(t, Invalid, Evaluate("", c))
	assert.Equal(t, Invalid, Evaluate("12345", c))
}

// Every duress PIN wins, also when it shares digits with the normal PIN.
func TestDuressNeverNormal(t *testing.T) {
	for i := 0; i < 10000; i++ {
		duress := fmt.Sprintf("%04d", i)
		normal := fmt.Sprintf("%04d", (i+1)%10000)
		c := creds(normal, duress)
		if got := Evaluate(duress, c); got != Duress {
			t.Fatalf("Evaluate(%q) with normal %q = %v", duress, normal, got)
		}
	}
}

func TestDuressCheckedFirst(t *testing.T) {
	// 配置错误时 duress 仍优先
	assert.Equal(t, Duress, Evaluate("1111", creds("1111", "1111")))
}

func TestUnsetCredentials(t *testing.T) {
	assert.Equal(t, Invalid, Evaluate("0000", models.Credentials{}))
}

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat("0000"))
	assert.True(t, ValidFormat("9876"))
	assert.False(t, ValidFormat("123"))
	assert.False(t, ValidFormat("12a4"))
	assert.False(t, ValidFormat("１２３４"))
	assert.False(t, ValidFormat(""))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "DURESS", Duress.String())
	assert.Equal(t, "NORMAL", Normal.String())
	assert.Equal(t, "INVALID", Invalid.String())
}
