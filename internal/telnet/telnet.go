// Package telnet 最小化的 telnet 处理
//
// 只覆盖获得逐字符输入所需的选项协商：服务端声明 WILL ECHO、WILL SGA、DO SGA，
// 客户端发来的 IAC 序列一律丢弃，不解析回复。
package telnet

import (
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// 协议字节
const (
	IAC  = 0xFF
	DONT = 0xFE
	DO   = 0xFD
	WONT = 0xFC
	WILL = 0xFB
	SB   = 0xFA
	SE   = 0xF0
)

// 选项
const (
	OptEcho = 0x01
	OptSGA  = 0x03
)

// Negotiation 连接建立时发送一次的协商字节
func Negotiation() []byte {
	return []byte{
		IAC, WILL, OptEcho,
		IAC, WILL, OptSGA,
		IAC, DO, OptSGA,
	}
}

// Strip 去掉 IAC 序列并有损解码为文本
//
// IAC + WILL/WONT/DO/DONT 占 3 字节，IAC + 其他字节占 2 字节。
// 缓冲区末尾孤立的 IAC 直接丢弃。跨两次读取被截断的序列不做拼接。
func Strip(data []byte) string {
	clean := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		b := data[i]
		if b != IAC {
			clean = append(clean, b)
			i++
			continue
		}
		if i+1 >= len(data) {
			break
		}
		switch data[i+1] {
		case WILL, WONT, DO, DONT:
			i += 3
		default:
			i += 2
		}
	}
	return Decode(clean)
}

// Decode 有损 UTF-8 解码，非法序列替换为 U+FFFD
func Decode(data []byte) string {
	out, _, _ := transform.Bytes(runes.ReplaceIllFormed(), data)
	return string(out)
}
