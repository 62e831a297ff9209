// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/camera_gimbal/internal/imu"
)

// flakyBus answers reads from a register image and fails on demand.
type flakyBus struct {
	regs [256]byte
	fail bool
	txs  int
}

func (f *flakyBus) String() string                  { return "flaky" }
func (f *flakyBus) SetSpeed(physic.Frequency) error { return nil }
func (f *flakyBus) Tx(addr uint16, w, r []byte) error {
	f.txs++
	if f.fail {
		return errors.New("nack")
	}
	if len(w) == 0 {
		return nil
	}
	if len(r) == 0 {
		if len(w) == 2 {
			f.regs[w[0]] = w[1]
		}
		return nil
	}
	copy(r, f.regs[w[0]:])
	return nil
}

func TestDecodeLegacyOrdering(t *testing.T) {
	// hi<<8 | (lo/divisor), never (hi<<8|lo)/divisor.
	assert.Equal(t, int16(0x4000), DecodeLegacy(0x40, 0xFF, AccelCountsPerG))
	assert.Equal(t, int16(0x0101), DecodeLegacy(0x01, 0xFF, GyroCountsPerDPS))
	assert.Equal(t, int16(0x0100), DecodeLegacy(0x01, 0x82, GyroCountsPerDPS))
	assert.Equal(t, int16(-256), DecodeLegacy(0xFF, 0x00, GyroCountsPerDPS))
}

func TestDecodeAccelBlock(t *testing.T) {
	ax, ay, az := DecodeAccel([]byte{0x01, 0x10, 0xFE, 0x20, 0x40, 0x00})
	assert.Equal(t, int16(0x0100), ax)
	assert.Equal(t, int16(-512), ay)
	assert.Equal(t, int16(0x4000), az)
}

func TestBusWireTransactions(t *testing.T) {
	p := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddr, W: []byte{RegPwrMgmt1, 0x00}},
			{Addr: DefaultAddr, W: []byte{RegAccelXOutH}, R: []byte{0x00, 0x00, 0x00, 0x00, 0x40, 0x00}},
			{Addr: DefaultAddr, W: []byte{RegGyroYOutH}, R: []byte{0x02, 0x83}},
		},
		DontPanic: true,
	}
	b := NewBus(p, DefaultAddr)
	require.NoError(t, b.Init(RegPwrMgmt1))

	block, err := b.ReadBlock(RegAccelXOutH, 6)
	require.NoError(t, err)
	ax, ay, az := DecodeAccel(block)
	assert.Equal(t, [3]int16{0, 0, 16384}, [3]int16{ax, ay, az})

	block, err = b.ReadBlock(RegGyroYOutH, 2)
	require.NoError(t, err)
	assert.Equal(t, int16(0x0201), DecodeGyro(block))

	require.NoError(t, p.Close())
}

func TestReadBeforeInit(t *testing.T) {
	b := NewBus(&flakyBus{}, DefaultAddr)
	_, err := b.ReadBlock(RegAccelXOutH, 6)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestIMUReturnsStaleSampleOnFailure(t *testing.T) {
	fb := &flakyBus{}
	fb.regs[RegWhoAmI] = WhoAmIValue
	copy(fb.regs[RegAccelXOutH:], []byte{0x01, 0x00, 0x02, 0x00, 0x40, 0x00})
	copy(fb.regs[RegGyroXOutH:], []byte{0x00, 0x05})

	m := NewIMU(NewBus(fb, DefaultAddr))
	require.NoError(t, m.Start(RegPwrMgmt1))
	assert.Equal(t, byte(0), fb.regs[RegPwrMgmt1])

	ax, ay, az := m.ReadAccel()
	assert.Equal(t, [3]int16{256, 512, 16384}, [3]int16{ax, ay, az})
	assert.Equal(t, int16(0), m.ReadGyro(imu.AxisRoll))

	fb.fail = true
	ax, ay, az = m.ReadAccel()
	assert.Equal(t, [3]int16{256, 512, 16384}, [3]int16{ax, ay, az})
	assert.Equal(t, uint64(1), m.Failures())
}

func TestIMUZeroBeforeFirstGoodRead(t *testing.T) {
	fb := &flakyBus{}
	m := NewIMU(NewBus(fb, DefaultAddr))
	require.NoError(t, m.Start(RegPwrMgmt1))
	fb.fail = true

	raw := m.ReadRaw()
	assert.Equal(t, imu.Raw{}, raw)
	assert.Equal(t, uint64(4), m.Failures())
}

func TestRegisterName(t *testing.T) {
	assert.Equal(t, "PWR_MGMT_1", RegisterName(RegPwrMgmt1))
	assert.Equal(t, "0x10", RegisterName(0x10))
	assert.NotEmpty(t, Registers())
}
