package internal

import (
	"encoding/binary"
	"time"

	"github.com/xitongsys/parquet-go/parquet"
)

const (
	// ユリウス通日 2457755 が 2017-01-01 に対応する
	referenceJulianDay = 2457755

	nanosPerDay = int64(24 * time.Hour)
)

var referenceDate = time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC)

// INT96 のタイムスタンプは先頭8バイトがその日の0時からの経過ナノ秒(int64)、
// 後続4バイトがユリウス通日(uint32)
// マイクロ秒未満は切り捨てる
func Int96TimestampDecoder(data []byte) (time.Time, error) {
	if err := checkWidth(parquet.Type_INT96, data, int96Width); err != nil {
		return time.Time{}, err
	}

	dayNanos := int64(binary.LittleEndian.Uint64(data[:8]))
	julianDay := binary.LittleEndian.Uint32(data[8:])

	if dayNanos < 0 || dayNanos >= nanosPerDay {
		return time.Time{}, formatErrorf("nanoseconds of day out of range: %d", dayNanos)
	}

	date := julianDayToDate(julianDay)
	hour, minute, sec, micros := nanosToTime(dayNanos)

	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, sec, micros*1000, time.UTC), nil
}

func julianDayToDate(julianDay uint32) time.Time {
	return referenceDate.AddDate(0, 0, int(int64(julianDay)-referenceJulianDay))
}

func nanosToTime(nanos int64) (hour, minute, sec, micros int) {
	m := nanos / 1000
	s := m / 1_000_000
	micros = int(m % 1_000_000)
	sec = int(s % 60)
	minute = int(s / 60 % 60)
	hour = int(s / 3600)
	return
}
