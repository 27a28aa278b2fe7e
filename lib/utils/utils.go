package utils

import (
	"math/rand"
	"time"
)

// ConvertRange 将 Redis 风格的闭区间索引（支持负数）转换为
// Go 切片的左闭右开区间，范围无效时返回 (-1, -1)
func ConvertRange(start int64, end int64, size int64) (int, int) {
	if start < -size {
		return -1, -1
	} else if start < 0 {
		start = size + start
	} else if start >= size {
		return -1, -1
	}

	if end < -size {
		return -1, -1
	} else if end < 0 {
		end = size + end + 1
	} else if end < size {
		end = end + 1
	} else {
		end = size
	}

	if start > end {
		return -1, -1
	}
	return int(start), int(end)
}

// 将 string 类型的命令转为 [][]byte 类型（即 CmdLine)
func ToCmdLine(cmd ...string) [][]byte {
	args := make([][]byte, len(cmd))
	for i, s := range cmd {
		args[i] = []byte(s)
	}
	return args
}

// 将 command 和 args 命令转为 CmdLine 类型
func ToCmdLine2(command string, args ...string) [][]byte {
	result := make([][]byte, len(args)+1)
	result[0] = []byte(command)
	for i, arg := range args {
		result[i+1] = []byte(arg)
	}
	return result
}

// 检查两个 []byte 类型的变量是否相同
func BytesEquals(a []byte, b []byte) bool {
	if (a == nil && b != nil) || (a != nil && b == nil) {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

var r = rand.New(rand.NewSource(time.Now().UnixNano()))

func RandString(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[r.Intn(len(letters))]
	}
	return string(b)
}
