// Copyright 2026 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package impl

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dsoprea/go-ext4"
)

// errNotFound is returned by readExt4File for a path with no file behind it.
var errNotFound = errors.New("file not found")

// groupDescriptor returns the block group descriptor holding inode.
func groupDescriptor(rs io.ReadSeeker, inode int) (*ext4.BlockGroupDescriptor, error) {
	if _, err := rs.Seek(ext4.Superblock0Offset, io.SeekStart); err != nil {
		return nil, err
	}
	sb, err := ext4.NewSuperblockWithReader(rs)
	if err != nil {
		return nil, fmt.Errorf("failed to read superblock: %v", err)
	}
	bgdl, err := ext4.NewBlockGroupDescriptorListWithReadSeeker(rs, sb)
	if err != nil {
		return nil, fmt.Errorf("failed to read block group descriptors: %v", err)
	}
	return bgdl.GetWithAbsoluteInode(inode)
}

// readExt4File returns the contents of the file at path in the ext4
// filesystem read through rs.
func readExt4File(rs io.ReadSeeker, path string) ([]byte, error) {
	path = strings.Trim(path, "/")

	bgd, err := groupDescriptor(rs, ext4.InodeRootDirectory)
	if err != nil {
		return nil, err
	}
	dw, err := ext4.NewDirectoryWalk(rs, bgd, ext4.InodeRootDirectory)
	if err != nil {
		return nil, err
	}
	inode := 0
	for {
		p, de, err := dw.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		if p == path {
			inode = int(de.Data().Inode)
			break
		}
	}
	if inode == 0 {
		return nil, fmt.Errorf("%q: %w", path, errNotFound)
	}

	if bgd, err = groupDescriptor(rs, inode); err != nil {
		return nil, err
	}
	in, err := ext4.NewInodeWithReadSeeker(bgd, rs, inode)
	if err != nil {
		return nil, err
	}
	en := ext4.NewExtentNavigatorWithReadSeeker(rs, in)
	return io.ReadAll(ext4.NewInodeReader(en))
}
