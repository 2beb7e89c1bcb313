package websocket

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
)

const (
	opCodeText  = 1
	opCodeClose = 8
)

// connection wraps a hijacked TCP connection. Writes are serialized because
// both the request handler and the bot's push goroutine send frames.
type connection struct {
	raw      net.Conn
	bufrw    *bufio.ReadWriter
	playerID string

	writeMu sync.Mutex
}

func newConnection(raw net.Conn, bufrw *bufio.ReadWriter) *connection {
	return &connection{
		raw:   raw,
		bufrw: bufrw,
	}
}

func (that *connection) close() {
	_ = that.raw.Close()
}

func (that *connection) sendMessage(action string, payload ResponsePayload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	response := Message{
		Action:  action,
		Payload: payloadBytes,
	}
	responseBytes, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	f := frame{
		isFin:   true,
		opCode:  opCodeText,
		length:  uint64(len(responseBytes)),
		payload: responseBytes,
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err := that.writeFrame(f); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	return nil
}

func (that *connection) writeFrame(frameData frame) error {
	buf := make([]byte, 2)
	buf[0] |= frameData.opCode

	if frameData.isFin {
		buf[0] |= 0x80
	}

	switch {
	case frameData.length < 126:
		buf[1] |= byte(frameData.length)
	case frameData.length < 1<<16:
		buf[1] |= 126
		size := make([]byte, 2)
		binary.BigEndian.PutUint16(size, uint16(frameData.length))
		buf = append(buf, size...) //nolint: makezero // frame header grows with the length class
	default:
		buf[1] |= 127
		size := make([]byte, 8)
		binary.BigEndian.PutUint64(size, frameData.length)
		buf = append(buf, size...) //nolint: makezero // frame header grows with the length class
	}

	buf = append(buf, frameData.payload...) //nolint: makezero // header then payload

	if _, err := that.bufrw.Write(buf); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	if err := that.bufrw.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %w", err)
	}

	return nil
}

func (that *connection) readRequest() ([]byte, error) {
	header := make([]byte, 2)
	if _, err := io.ReadFull(that.bufrw, header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	finBit := header[0] >> 7
	opCode := header[0] & 0x0f
	maskBit := header[1] >> 7
	payloadLen := header[1] & 0x7f

	size, err := that.readPayloadLength(payloadLen)
	if err != nil {
		return nil, err
	}

	mask, err := that.readMask(maskBit)
	if err != nil {
		return nil, err
	}

	payload, err := that.readData(size, mask)
	if err != nil {
		return nil, err
	}

	if opCode == opCodeClose {
		return nil, net.ErrClosed
	}

	if finBit != 1 {
		return nil, nil
	}

	return payload, nil
}

func (that *connection) readPayloadLength(payloadLen byte) (uint64, error) {
	if payloadLen < 126 {
		return uint64(payloadLen), nil
	}

	if payloadLen == 126 {
		length := make([]byte, 2)
		if _, err := io.ReadFull(that.bufrw, length); err != nil {
			return 0, fmt.Errorf("failed to read payload length: %w", err)
		}
		return uint64(binary.BigEndian.Uint16(length)), nil
	}

	length := make([]byte, 8)
	if _, err := io.ReadFull(that.bufrw, length); err != nil {
		return 0, fmt.Errorf("failed to read payload length: %w", err)
	}

	return binary.BigEndian.Uint64(length), nil
}

func (that *connection) readMask(maskBit byte) ([]byte, error) {
	if maskBit == 0 {
		return nil, nil
	}

	mask := make([]byte, 4)
	if _, err := io.ReadFull(that.bufrw, mask); err != nil {
		return nil, fmt.Errorf("failed to read mask: %w", err)
	}

	return mask, nil
}

func (that *connection) readData(size uint64, mask []byte) ([]byte, error) {
	payload := make([]byte, size)
	if _, err := io.ReadFull(that.bufrw, payload); err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	if mask != nil {
		for i := range payload {
			payload[i] ^= mask[i%4]
		}
	}

	return payload, nil
}
