package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeContiguousEncodedWords(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{
			"Hello =?UTF-8?B?SGVsbG8=?= =?UTF-8?B?V29ybGQ=?= !!!",
			"Hello =?UTF-8?B?SGVsbG8=V29ybGQ=?= !!!",
		},
		{
			"=?UTF-8?B?QQ==?= =?UTF-8?B?Qg==?= =?UTF-8?B?Qw==?=",
			"=?UTF-8?B?QQ==Qg==Qw==?=",
		},
		{
			"=?UTF-8?B?QQ==?= =?UTF-8?B?Qg==?= test =?UTF-8?B?Qw==?= =?UTF-8?B?RA==?=",
			"=?UTF-8?B?QQ==Qg==?= test =?UTF-8?B?Qw==RA==?=",
		},
		{
			"=?UTF-8?B?QQ==?= =?GBK?B?Qg==?=",
			"=?UTF-8?B?QQ==?= =?GBK?B?Qg==?=",
		},
		{
			"=?UTF-8?B?QQ==?= =?UTF-8?Q?Qg?=",
			"=?UTF-8?B?QQ==?= =?UTF-8?Q?Qg?=",
		},
		{
			"=?UTF-8?b?QQ==?= =?UTF-8?B?Qg==?=",
			"=?UTF-8?B?QQ==Qg==?=",
		},
		{
			"Hello =?UTF-8?B?SGVsbG8=?= !!!",
			"Hello =?UTF-8?B?SGVsbG8=?= !!!",
		},
		{
			"=?UTF-8?B?QQ==?=    =?UTF-8?B?Qg==?=",
			"=?UTF-8?B?QQ==Qg==?=",
		},
		{
			"Just a normal subject line",
			"Just a normal subject line",
		},
		{
			"=?UTF-8?Q?Hello_?= =?UTF-8?Q?World?=",
			"=?UTF-8?Q?Hello_World?=",
		},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, mergeContiguousEncodedWords(tc.input))
		})
	}
}
