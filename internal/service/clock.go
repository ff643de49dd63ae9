package service

import "time"

// now 测试中可替换
var now = time.Now
